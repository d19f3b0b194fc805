package htmlform

import "strings"

// TagAttributes maps attribute names of a form tag to their values. Name
// lookup is case-insensitive because markup tokenizers fold tag and attribute
// names to lower case.
type TagAttributes map[string]string

// Get returns the value of the named attribute, or "" if it is absent.
func (a TagAttributes) Get(name string) string {
	v, _ := a.Lookup(name)
	return v
}

// Lookup returns the value of the named attribute and whether it was present.
func (a TagAttributes) Lookup(name string) (string, bool) {
	if v, ok := a[name]; ok {
		return v, true
	}
	for k, v := range a {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Bool parses the attribute as a boolean. Only "true" (any case) is true.
func (a TagAttributes) Bool(name string) bool {
	return strings.EqualFold(strings.TrimSpace(a.Get(name)), "true")
}
