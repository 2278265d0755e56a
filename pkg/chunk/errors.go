package chunk

import (
	"errors"
	"fmt"
)

// Kind classifies a chunk failure. The set is closed.
type Kind int

const (
	// KindChecksumMismatch means the stored CRC does not match the type and data.
	KindChecksumMismatch Kind = iota + 1
	// KindTruncatedInput means the available bytes do not match what the
	// framing declares.
	KindTruncatedInput
	// KindMalformedTypeTag means the 4 type bytes are not a valid chunk type.
	KindMalformedTypeTag
	// KindInvalidTextPayload means the payload is not valid UTF-8.
	KindInvalidTextPayload
	// KindPayloadTooLarge means the payload exceeds the permitted length.
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindTruncatedInput:
		return "truncated_input"
	case KindMalformedTypeTag:
		return "malformed_type_tag"
	case KindInvalidTextPayload:
		return "invalid_text_payload"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by every fallible chunk operation.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrChecksumMismatch   = &Error{Kind: KindChecksumMismatch}
	ErrTruncatedInput     = &Error{Kind: KindTruncatedInput}
	ErrMalformedTypeTag   = &Error{Kind: KindMalformedTypeTag}
	ErrInvalidTextPayload = &Error{Kind: KindInvalidTextPayload}
	ErrPayloadTooLarge    = &Error{Kind: KindPayloadTooLarge}
)

func (e *Error) Error() string {
	msg := "chunk: " + describe(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 if err is not a chunk error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

func describe(k Kind) string {
	switch k {
	case KindChecksumMismatch:
		return "checksum mismatch"
	case KindTruncatedInput:
		return "truncated input"
	case KindMalformedTypeTag:
		return "malformed type tag"
	case KindInvalidTextPayload:
		return "payload is not valid UTF-8"
	case KindPayloadTooLarge:
		return "payload too large"
	default:
		return k.String()
	}
}
