package htmlform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadFormDesign matches any error caused by malformed form markup. Such
// errors are defects in the form definition and are never recovered while
// rendering.
var ErrBadFormDesign = errors.New("bad form design")

// BadFormDesignError reports a tag attribute whose value falls outside its
// fixed vocabulary.
type BadFormDesignError struct {
	Tag       string
	Attribute string
	Value     string
	Allowed   []string
	Err       error
}

func (e *BadFormDesignError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: <%s> attribute %s has invalid value %q", ErrBadFormDesign, e.Tag, e.Attribute, e.Value)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	return b.String()
}

func (e *BadFormDesignError) Is(target error) bool {
	return target == ErrBadFormDesign
}

func (e *BadFormDesignError) Unwrap() error {
	return e.Err
}

// FieldError is a validation failure on submitted form data.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError wraps the field errors of a rejected submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "submission invalid: " + strings.Join(msgs, "; ")
}
