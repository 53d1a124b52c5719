package textres

import (
	"context"
	"io"
	"strings"
)

// SourceKind tags the closed set of origin variants. The numeric values are
// part of the binary codec format and must not be reordered.
type SourceKind int

const (
	SourceString SourceKind = iota
	SourceURI
	SourceArchive
	SourceFile
	SourceClasspath
)

func (k SourceKind) String() string {
	switch k {
	case SourceString:
		return "string"
	case SourceURI:
		return "uri"
	case SourceArchive:
		return "archive"
	case SourceFile:
		return "file"
	case SourceClasspath:
		return "classpath"
	default:
		return "unknown"
	}
}

// ParseSourceKind is the inverse of SourceKind.String.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return SourceString, true
	case "uri", "url":
		return SourceURI, true
	case "archive":
		return SourceArchive, true
	case "file":
		return SourceFile, true
	case "classpath":
		return SourceClasspath, true
	}
	return 0, false
}

// CharacterSource opens fresh character streams on demand. Implementations are
// immutable: they capture just enough to re-resolve the origin and never keep
// an open handle between calls. Open is the single fallible operation; each
// successful call returns an independent Stream owned by the caller.
type CharacterSource interface {
	Kind() SourceKind
	Open(ctx context.Context) (*Stream, error)
}

// StringSource serves a literal string. It never fails to open.
type StringSource struct {
	text string
}

// NewStringSource returns a source over text.
func NewStringSource(text string) *StringSource { return &StringSource{text: text} }

func (s *StringSource) Kind() SourceKind { return SourceString }

// Text returns the literal content.
func (s *StringSource) Text() string { return s.text }

func (s *StringSource) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioFailure("", "open cancelled", err)
	}
	return newStream(io.NopCloser(strings.NewReader(s.text)), UTF8, ""), nil
}
