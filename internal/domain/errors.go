package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags a rule violation raised by the activity core.
type ErrorKind int

const (
	KindInvalidFormat ErrorKind = iota + 1
	KindInvalidStep
	KindInvalidRange
	KindTimeOverlap
	KindNonContiguous
	KindInvalidActivityType
	KindMissingCustomType
	KindNotFound
	KindInvalidInput
)

// Code is the stable wire code for the kind.
func (k ErrorKind) Code() string {
	switch k {
	case KindInvalidFormat:
		return "INVALID_FORMAT"
	case KindInvalidStep:
		return "INVALID_STEP"
	case KindInvalidRange:
		return "INVALID_RANGE"
	case KindTimeOverlap:
		return "TIME_OVERLAP"
	case KindNonContiguous:
		return "NON_CONTIGUOUS"
	case KindInvalidActivityType:
		return "INVALID_ACTIVITY_TYPE"
	case KindMissingCustomType:
		return "MISSING_CUSTOM_TYPE"
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidInput:
		return "VALIDATION_ERROR"
	default:
		return "UNKNOWN"
	}
}

func (k ErrorKind) String() string { return k.Code() }

// Error is a structured rule violation. Only the payload fields that belong to
// Kind are populated.
type Error struct {
	Kind    ErrorKind
	Message string

	// TimeOverlap
	Conflicting *Activity
	// NonContiguous
	ExpectedStartTime string
	ProvidedStartTime string
	// InvalidActivityType, MissingCustomType
	AllowedTypes []string
	// InvalidInput, InvalidFormat
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.ToLower(strings.ReplaceAll(e.Kind.Code(), "_", " "))
}

// KindOf returns the kind carried by err, or 0 when err is not a rule violation.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func InvalidFormat(field, value, want string) *Error {
	return &Error{
		Kind:    KindInvalidFormat,
		Message: fmt.Sprintf("invalid %s %q: expected %s", field, value, want),
		Fields:  map[string]string{field: value},
	}
}

func InvalidStep(value string) *Error {
	return &Error{
		Kind:    KindInvalidStep,
		Message: fmt.Sprintf("time %s must use 15 minute steps (00, 15, 30, 45)", value),
	}
}

func InvalidRange(msg string) *Error {
	return &Error{Kind: KindInvalidRange, Message: msg}
}

func TimeOverlap(conflicting Activity) *Error {
	return &Error{
		Kind:        KindTimeOverlap,
		Message:     fmt.Sprintf("activity overlaps %s-%s", conflicting.StartTime, conflicting.EndTime),
		Conflicting: &conflicting,
	}
}

func NonContiguous(expected, provided string) *Error {
	return &Error{
		Kind:              KindNonContiguous,
		Message:           fmt.Sprintf("activity must start at %s, got %s", expected, provided),
		ExpectedStartTime: expected,
		ProvidedStartTime: provided,
	}
}

func NotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", what, id)}
}
