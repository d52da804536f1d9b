package dynamic

import "fmt"

// ValueError reports that a Value is not valid for a field: its kind or
// cardinality doesn't match what the field descriptor requires.
type ValueError struct {
	Field   string
	Message string
}

func (e *ValueError) Error() string { return fmt.Sprintf("dynamic: field %s: %s", e.Field, e.Message) }

func valueErr(field, format string, args ...interface{}) error {
	return &ValueError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnknownFieldError reports that a field name or number used in strict
// mode does not exist on the message's descriptor.
type UnknownFieldError struct {
	Message string
	Field   string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("dynamic: message %s has no field %s", e.Message, e.Field)
}

// DecodeError reports a binary wire-format decode failure, per the
// Truncated/MalformedVarint/InvalidUtf8/UnexpectedEndGroup/
// RecursionLimitExceeded taxonomy.
type DecodeError struct {
	Kind    string
	Message string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("dynamic: %s: %s", e.Kind, e.Message) }

func decodeErr(kind, format string, args ...interface{}) error {
	return &DecodeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
