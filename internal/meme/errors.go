package meme

import "errors"

// Error is a user-facing failure raised somewhere in the meme pipeline.
// Message is safe to show in a banner; Err carries the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// ErrorKind categorizes pipeline failures by the boundary that recovers them.
type ErrorKind int

const (
	// KindValidation indicates an action attempted without an active image source.
	KindValidation ErrorKind = iota
	// KindDecode indicates the base image could not be loaded or decoded.
	KindDecode
	// KindService indicates the caption/edit service failed or timed out.
	KindService
	// KindExport indicates serialization, share, or clipboard failure.
	KindExport
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindService:
		return "service"
	case KindExport:
		return "export"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err wraps a pipeline Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// UserMessage returns the banner text for err. Errors outside the pipeline
// taxonomy fall back to fallback.
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// ErrNoImage is returned when composing or generating without an image source.
var ErrNoImage = NewError(KindValidation, "Please upload an image or select a template first.", nil)
