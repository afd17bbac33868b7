package calendar

import "fmt"

// Kind classifies caller-input failures reported by the core.
type Kind string

const (
	// KindInvalidDate reports year/month/day components that do not form a calendar date.
	KindInvalidDate Kind = "InvalidDate"
	// KindInvalidMonth reports a month outside 1..12.
	KindInvalidMonth Kind = "InvalidMonth"
	// KindMissingUserID reports a mutation without a user identifier.
	KindMissingUserID Kind = "MissingUserId"
	// KindMalformedActionID reports a callback action id that cannot be parsed.
	KindMalformedActionID Kind = "MalformedActionId"
	// KindInvalidMode reports a selection mode other than single or range.
	KindInvalidMode Kind = "InvalidMode"
)

// Error carries a failure kind and a human readable message.
type Error struct {
	Kind    Kind
	Message string
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidDate       = &Error{Kind: KindInvalidDate, Message: "invalid date"}
	ErrInvalidMonth      = &Error{Kind: KindInvalidMonth, Message: "invalid month"}
	ErrMissingUserID     = &Error{Kind: KindMissingUserID, Message: "userId is required"}
	ErrMalformedActionID = &Error{Kind: KindMalformedActionID, Message: "malformed action id"}
	ErrInvalidMode       = &Error{Kind: KindInvalidMode, Message: "invalid mode"}
)

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Code exposes the kind for error-code aware loggers and transports.
func (e *Error) Code() string {
	return string(e.Kind)
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
