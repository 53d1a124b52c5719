package textres

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// TextResource is a named, read-only view over a CharacterSource. It holds no
// state between calls: every read opens the source afresh, so content that
// changes between reads is always observed.
type TextResource struct {
	name   string
	source CharacterSource
	logger *zap.Logger
}

// New returns a resource that owns src and reports itself as name.
func New(name string, src CharacterSource) *TextResource {
	return &TextResource{name: name, source: src}
}

// NewClasspathResource reads path through resolver.
func NewClasspathResource(resolver Resolver, path string, cs Charset) *TextResource {
	return New("Classpath resource '"+path+"'", NewClasspathSource(resolver, path, cs))
}

// NewFileResource reads path from fsys (the OS filesystem when nil).
func NewFileResource(fsys afero.Fs, path string, cs Charset) *TextResource {
	return newFileResource(NewFileSource(fsys, path, cs))
}

func newFileResource(s *FileSource) *TextResource {
	return New("File '"+s.path+"'", s)
}

// NewArchiveEntryResource reads entry from the archive file at archive.
func NewArchiveEntryResource(fsys afero.Fs, archive, entry string, cs Charset) *TextResource {
	return newArchiveEntryResource(NewArchiveEntrySource(fsys, archive, entry, cs))
}

func newArchiveEntryResource(s *ArchiveEntrySource) *TextResource {
	return New("Entry '"+s.entry+"' in archive '"+s.archive+"'", s)
}

// NewStringResource serves text verbatim.
func NewStringResource(text string) *TextResource {
	return New("Text resource", NewStringSource(text))
}

// NewURIResource fetches uri with client (http.DefaultClient when nil).
func NewURIResource(client *http.Client, uri *url.URL, cs Charset) *TextResource {
	return New("URI '"+uri.String()+"'", NewURISource(client, uri, cs))
}

// WithLogger returns a copy of r that logs through l.
func (r *TextResource) WithLogger(l *zap.Logger) *TextResource {
	cp := *r
	cp.logger = l
	return &cp
}

// Named returns a copy of r with a different display name.
func (r *TextResource) Named(name string) *TextResource {
	cp := *r
	cp.name = name
	return &cp
}

// DisplayName returns the human-readable description given at construction.
func (r *TextResource) DisplayName() string { return r.name }

// String implements fmt.Stringer.
func (r *TextResource) String() string { return r.name }

// Source returns the underlying CharacterSource.
func (r *TextResource) Source() CharacterSource { return r.source }

// Charset returns the decoding charset of the source. URI resources without an
// explicit charset report the zero Charset.
func (r *TextResource) Charset() Charset {
	if c, ok := r.source.(interface{ Charset() Charset }); ok {
		return c.Charset()
	}
	return UTF8
}

func (r *TextResource) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// Reader opens a new Stream. The caller must Close it.
func (r *TextResource) Reader(ctx context.Context) (*Stream, error) {
	l := r.log()
	l.Debug("opening text resource", zap.String("resource", r.name), zap.Stringer("kind", r.source.Kind()))
	s, err := r.source.Open(ctx)
	if err != nil {
		err = withResource(err, r.name)
		l.Debug("text resource open failed", zap.String("resource", r.name), zap.Error(err))
		return nil, err
	}
	s.resource = r.name
	return s, nil
}

// Bytes reads the whole resource and returns it as UTF-8.
func (r *TextResource) Bytes(ctx context.Context) (_ []byte, err error) {
	s, err := r.Reader(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	b, err := io.ReadAll(s)
	if err != nil {
		r.log().Debug("text resource read failed", zap.String("resource", r.name), zap.Error(err))
		return nil, err
	}
	return b, nil
}

// Text reads the whole resource as a string.
func (r *TextResource) Text(ctx context.Context) (string, error) {
	b, err := r.Bytes(ctx)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CopyTo writes the content to w encoded in cs.
func (r *TextResource) CopyTo(ctx context.Context, w io.Writer, cs Charset) (err error) {
	s, err := r.Reader(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	enc := cs.encoder(w)
	_, err = io.Copy(enc, s)
	if cerr := enc.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return withResource(err, r.name)
	}
	e := &Error{Kind: KindIOFailure, Resource: r.name, Detail: "could not write resource as " + cs.Name(), Cause: err}
	if isEncodingFailure(err) {
		e.Kind = KindMalformedInput
	}
	return e
}

// isEncodingFailure reports invalid UTF-8 and characters the target charset
// cannot represent.
func isEncodingFailure(err error) bool {
	if errors.Is(err, encoding.ErrInvalidUTF8) {
		return true
	}
	var rep interface{ Replacement() byte }
	return errors.As(err, &rep)
}

// AsFile writes the content, encoded in cs, to a new temporary file in dir on
// fsys and returns its path.
func (r *TextResource) AsFile(ctx context.Context, fsys afero.Fs, dir string, cs Charset) (string, error) {
	f, err := afero.TempFile(fsys, dir, "textres-*.txt")
	if err != nil {
		return "", &Error{Kind: KindIOFailure, Resource: r.name, Detail: "could not create file in " + dir, Cause: err}
	}
	name := f.Name()
	if err := r.CopyTo(ctx, f, cs); err != nil {
		_ = f.Close()
		_ = fsys.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(name)
		return "", &Error{Kind: KindIOFailure, Resource: r.name, Detail: "could not write " + name, Cause: err}
	}
	return name, nil
}
