package textres

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding"
)

// Stream is a buffered character stream over a decoded origin. Reads yield
// UTF-8 regardless of the origin's charset. The caller that opened a Stream
// owns it and must Close it.
type Stream struct {
	br       *bufio.Reader
	closer   io.Closer
	origin   string
	resource string
	closed   bool
}

// newStream decodes rc through cs behind a bufio.Reader. Ownership of rc
// passes to the returned Stream.
func newStream(rc io.ReadCloser, cs Charset, origin string) *Stream {
	return &Stream{
		br:     bufio.NewReader(cs.decoder(rc)),
		closer: rc,
		origin: origin,
	}
}

// Read implements io.Reader. Errors other than io.EOF are *Error values of
// kind KindIOFailure or KindMalformedInput.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, s.fail(errStreamClosed)
	}
	n, err := s.br.Read(p)
	return n, s.fail(err)
}

// ReadRune implements io.RuneReader.
func (s *Stream) ReadRune() (rune, int, error) {
	if s.closed {
		return 0, 0, s.fail(errStreamClosed)
	}
	r, size, err := s.br.ReadRune()
	return r, size, s.fail(err)
}

// ReadLine returns the next line without its trailing "\n" or "\r\n". The last
// line is returned without error even when it lacks a terminator; io.EOF is
// returned once no characters remain.
func (s *Stream) ReadLine() (string, error) {
	if s.closed {
		return "", s.fail(errStreamClosed)
	}
	line, err := s.br.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, s.fail(err)
}

// Close releases the underlying handle. Only the first call has an effect.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.closer.Close(); err != nil {
		e := ioFailure(s.origin, "could not release resource", err)
		e.Resource = s.resource
		return e
	}
	return nil
}

var errStreamClosed = errors.New("stream already closed")

func (s *Stream) fail(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	if _, ok := AsError(err); ok {
		return withResource(err, s.resource)
	}
	e := ioFailure(s.origin, "could not read resource", err)
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		e.Kind = KindMalformedInput
		e.Detail = "malformed input"
	}
	e.Resource = s.resource
	return e
}
