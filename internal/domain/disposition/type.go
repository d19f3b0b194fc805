package disposition

import (
	"errors"
	"fmt"
	"strings"
)

// Type is the disposition outcome that decides which prior diagnoses an
// encounter diagnoses widget pre-populates.
type Type int

const (
	// None means no prior diagnoses are pulled in.
	None Type = iota
	Admit
	Transfer
	Discharge
)

// ErrUnknown is returned by Parse for a keyword outside the recognised set.
var ErrUnknown = errors.New("unknown disposition type")

var keywords = map[Type]string{
	Admit:     "ADMIT",
	Transfer:  "TRANSFER",
	Discharge: "DISCHARGE",
}

// Values returns the recognised disposition types in declaration order.
func Values() []Type {
	return []Type{Admit, Transfer, Discharge}
}

// Keywords returns the keyword of every recognised disposition type.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for _, t := range Values() {
		out = append(out, t.String())
	}
	return out
}

// Parse resolves a keyword case-insensitively. An empty string is None;
// surrounding whitespace is not trimmed.
func Parse(s string) (Type, error) {
	if s == "" {
		return None, nil
	}
	for _, t := range Values() {
		if strings.EqualFold(s, keywords[t]) {
			return t, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknown, s)
}

func (t Type) String() string {
	return keywords[t]
}

func (t Type) IsNone() bool {
	return t == None
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
