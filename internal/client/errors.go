package client

import (
	"errors"
	"fmt"
)

// Kind classifies client-side errors.
type Kind int

const (
	// KindValidation is a request the relay rejected with an error event.
	KindValidation Kind = iota
	// KindTransport is a lost or failed connection. Recovered by reconnecting.
	KindTransport
	// KindPolicy is a request refused locally before reaching the network.
	KindPolicy
	// KindNotification is a desktop notification that could not be shown.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindPolicy:
		return "policy"
	case KindNotification:
		return "notification"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// Error is a classified error with an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches another *Error of the same kind and message, so the package
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

var (
	ErrUsernameMissing = NewError(KindPolicy, "Please configure username in settings")
	ErrNotConnected    = NewError(KindTransport, "Not connected to server")
	ErrAlreadyStarted  = errors.New("session already started")
)

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
