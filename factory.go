package textres

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Factory creates TextResources from services supplied at construction. It is
// immutable once built and safe for concurrent use.
type Factory struct {
	fs        afero.Fs
	client    *http.Client
	resolvers map[string]Resolver
	logger    *zap.Logger
	baseDir   string
	charset   Charset
}

// Option configures a Factory.
type Option func(*Factory)

// WithFs sets the filesystem used by file and archive resources.
func WithFs(fsys afero.Fs) Option { return func(f *Factory) { f.fs = fsys } }

// WithHTTPClient sets the client used by URI resources.
func WithHTTPClient(c *http.Client) Option { return func(f *Factory) { f.client = c } }

// WithResolvers registers classpath resolvers by their Identity.
func WithResolvers(rs ...Resolver) Option {
	return func(f *Factory) {
		for _, r := range rs {
			if r != nil {
				f.resolvers[r.Identity()] = r
			}
		}
	}
}

// WithLogger sets the logger handed to created resources.
func WithLogger(l *zap.Logger) Option { return func(f *Factory) { f.logger = l } }

// WithBaseDir resolves relative file and archive paths against dir.
func WithBaseDir(dir string) Option { return func(f *Factory) { f.baseDir = dir } }

// WithDefaultCharset replaces UTF-8 as the charset used when none is given.
func WithDefaultCharset(cs Charset) Option { return func(f *Factory) { f.charset = cs } }

// NewFactory returns a factory backed by the OS filesystem and
// http.DefaultClient unless overridden.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{resolvers: make(map[string]Resolver)}
	for _, o := range opts {
		o(f)
	}
	if f.fs == nil {
		f.fs = afero.NewOsFs()
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.logger == nil {
		f.logger = Logger()
	}
	if f.charset.IsZero() {
		f.charset = UTF8
	}
	return f
}

// NewFactoryFrom builds a factory from injected services. An afero.Fs is
// required; *http.Client, *zap.Logger and []Resolver are optional. opts are
// applied after the services.
func NewFactoryFrom(p ServiceProvider, opts ...Option) (*Factory, error) {
	fsys, err := Require[afero.Fs](p)
	if err != nil {
		return nil, err
	}
	base := []Option{WithFs(fsys)}
	if c, ok := Lookup[*http.Client](p); ok {
		base = append(base, WithHTTPClient(c))
	}
	if l, ok := Lookup[*zap.Logger](p); ok {
		base = append(base, WithLogger(l))
	}
	if rs, ok := Lookup[[]Resolver](p); ok {
		base = append(base, WithResolvers(rs...))
	}
	return NewFactory(append(base, opts...)...), nil
}

// Fs returns the filesystem used for files and archives.
func (f *Factory) Fs() afero.Fs { return f.fs }

// DefaultCharset returns the charset applied when none is given.
func (f *Factory) DefaultCharset() Charset { return f.charset }

// Resolver returns the registered resolver with the given identity.
func (f *Factory) Resolver(identity string) (Resolver, bool) {
	r, ok := f.resolvers[identity]
	return r, ok
}

func (f *Factory) cs(cs Charset) Charset {
	if cs.IsZero() {
		return f.charset
	}
	return cs
}

func (f *Factory) resolve(p string) string {
	if f.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.baseDir, p)
}

// FromString returns a resource over a literal string.
func (f *Factory) FromString(text string) *TextResource {
	return NewStringResource(text).WithLogger(f.logger)
}

// FromFile returns a resource reading the file at path. A relative path is
// resolved against the base dir; Describe reports it as given.
func (f *Factory) FromFile(path string, cs Charset) *TextResource {
	s := NewFileSource(f.fs, f.resolve(path), f.cs(cs))
	s.declared = path
	return newFileResource(s).WithLogger(f.logger)
}

// FromArchiveEntry returns a resource reading entry from the archive at archive.
// A relative archive path is resolved like FromFile.
func (f *Factory) FromArchiveEntry(archive, entry string, cs Charset) *TextResource {
	s := NewArchiveEntrySource(f.fs, f.resolve(archive), entry, f.cs(cs))
	s.declared = archive
	return newArchiveEntryResource(s).WithLogger(f.logger)
}

// FromClasspath returns a resource reading path through resolver.
func (f *Factory) FromClasspath(resolver Resolver, path string, cs Charset) *TextResource {
	return NewClasspathResource(resolver, path, f.cs(cs)).WithLogger(f.logger)
}

// FromClasspathID is FromClasspath with a resolver registered on the factory.
func (f *Factory) FromClasspathID(identity, path string, cs Charset) (*TextResource, error) {
	r, ok := f.resolvers[identity]
	if !ok {
		e := invalidOrigin(path, "no resolver registered as "+identity)
		e.Context = identity
		return nil, e
	}
	return f.FromClasspath(r, path, cs), nil
}

// FromURI returns a resource fetching uri. Only https and file URIs are
// accepted; use FromInsecureURI for plain http.
func (f *Factory) FromURI(uri string, cs Charset) (*TextResource, error) {
	return f.fromURI(uri, cs, false)
}

// FromInsecureURI is like FromURI but also accepts http URIs.
func (f *Factory) FromInsecureURI(uri string, cs Charset) (*TextResource, error) {
	return f.fromURI(uri, cs, true)
}

func (f *Factory) fromURI(raw string, cs Charset, insecure bool) (*TextResource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: KindInvalidOrigin, Origin: raw, Detail: "invalid uri " + raw, Cause: err}
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !insecure {
			return nil, invalidOrigin(raw, "uri "+raw+" uses the insecure protocol http")
		}
	case "file":
		return f.FromFile(filepath.FromSlash(u.Path), cs), nil
	default:
		return nil, invalidOrigin(raw, "unsupported uri scheme "+u.Scheme)
	}
	return NewURIResource(f.client, u, cs).WithLogger(f.logger), nil
}
