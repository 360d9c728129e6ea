package multiform

import (
	"fmt"
	"strings"
)

// NonFieldErrorsKey is the reserved key under which cross-form errors
// appear in the unified error mapping.
const NonFieldErrorsKey = "__all__"

// Errors is the unified error mapping of an aggregate. Values are
// []string for prefixed field keys and for NonFieldErrorsKey, and
// []map[string][]string for FormSet children (keyed by the child key, one
// entry per sub-form, empty entries for sub-forms without errors).
type Errors map[string]any

// Field returns the messages recorded under a prefixed field name, or nil.
func (e Errors) Field(name string) []string {
	msgs, _ := e[name].([]string)
	return msgs
}

// Set returns the per-sub-form error maps recorded under a FormSet child
// key, or nil.
func (e Errors) Set(key string) []map[string][]string {
	entry, _ := e[key].([]map[string][]string)
	return entry
}

// ValidationError is a validation failure raised by a cross-form clean
// hook (or a child-level clean hook). The container never propagates it;
// it is converted into cross-form error entries.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// KeyNotFoundError is returned when an undeclared child key is addressed.
// It lists the declared keys to make misconfigured aggregates easy to
// debug. Unlike validation failures this signals a programmer error and
// is not caught internally.
type KeyNotFoundError struct {
	Key     string
	Choices []string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("multiform: no child form %q, choices are: %s",
		e.Key, strings.Join(e.Choices, ", "))
}

// messagesOf extracts the messages carried by a clean-hook failure.
func messagesOf(err error) []string {
	if ve, ok := err.(*ValidationError); ok {
		return ve.Messages
	}
	return []string{err.Error()}
}
