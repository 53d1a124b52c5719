package textres

import (
	"errors"
	"strings"
)

// Kind categorizes a resolution or read failure.
type Kind string

// Error kinds (exported consts for IDE completion and type safety by convention)
const (
	// KindNotFound: the origin could not be located when the resource was opened.
	KindNotFound Kind = "not_found"
	// KindIOFailure: the origin was located but reading it failed partway.
	KindIOFailure Kind = "io_failure"
	// KindMalformedInput: the bytes are not valid in the configured charset.
	// Treated as a kind of KindIOFailure by errors.Is.
	KindMalformedInput Kind = "malformed_input"
	// KindInvalidOrigin: the origin descriptor itself cannot be used (unknown
	// archive format, insecure URI, unregistered resolver, ...).
	KindInvalidOrigin Kind = "invalid_origin"
	// KindServiceUnavailable: a required injected service was not provided.
	KindServiceUnavailable Kind = "service_unavailable"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound           = errors.New("textres: resource not found")
	ErrIOFailure          = errors.New("textres: i/o failure")
	ErrMalformedInput     = errors.New("textres: malformed input")
	ErrInvalidOrigin      = errors.New("textres: invalid origin")
	ErrServiceUnavailable = errors.New("textres: service unavailable")
)

// Error is the structured error returned by sources and resources.
type Error struct {
	Kind     Kind
	Resource string // Display name of the resource, when known.
	Origin   string // Logical origin (path, entry, URI).
	Context  string // Resolution context (resolver identity, archive path).
	Detail   string
	Cause    error
}

// Error renders "<resource>: <detail>: <cause>", omitting empty parts.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	}
	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else {
		b.WriteString(string(e.Kind))
		if e.Origin != "" {
			b.WriteString(" ")
			b.WriteString(e.Origin)
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for the error's Kind. Malformed input also matches
// ErrIOFailure.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrIOFailure:
		return e.Kind == KindIOFailure || e.Kind == KindMalformedInput
	case ErrMalformedInput:
		return e.Kind == KindMalformedInput
	case ErrInvalidOrigin:
		return e.Kind == KindInvalidOrigin
	case ErrServiceUnavailable:
		return e.Kind == KindServiceUnavailable
	}
	return false
}

// AsError extracts an *Error from err using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports whether err is a KindNotFound failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsIOFailure reports whether err is a KindIOFailure or KindMalformedInput failure.
func IsIOFailure(err error) bool { return errors.Is(err, ErrIOFailure) }

// withResource attaches the display name to err when it is an *Error without
// one. Other errors are wrapped as IO failures so the name is never lost.
func withResource(err error, name string) error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		if e.Resource != "" {
			return err
		}
		cp := *e
		cp.Resource = name
		return &cp
	}
	return &Error{Kind: KindIOFailure, Resource: name, Detail: "could not read resource", Cause: err}
}

func notFound(origin, context, detail string, cause error) *Error {
	return &Error{Kind: KindNotFound, Origin: origin, Context: context, Detail: detail, Cause: cause}
}

func ioFailure(origin, detail string, cause error) *Error {
	return &Error{Kind: KindIOFailure, Origin: origin, Detail: detail, Cause: cause}
}

func invalidOrigin(origin, detail string) *Error {
	return &Error{Kind: KindInvalidOrigin, Origin: origin, Detail: detail}
}
