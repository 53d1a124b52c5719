package textres

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Resolver is the resolver base of classpath-style origins: it turns a path
// into a byte stream, or reports absence with an error matching fs.ErrNotExist.
type Resolver interface {
	// Identity names the resolver in diagnostics and in encoded descriptors.
	Identity() string
	OpenResource(path string) (io.ReadCloser, error)
}

// NewFSResolver adapts an fs.FS (typically an embed.FS) into a Resolver.
// Paths starting with "/" are resolved from the root of fsys; other paths are
// resolved relative to baseDir.
func NewFSResolver(identity string, fsys fs.FS, baseDir string) Resolver {
	return &fsResolver{identity: identity, fsys: fsys, base: strings.Trim(baseDir, "/")}
}

type fsResolver struct {
	identity string
	fsys     fs.FS
	base     string
}

func (r *fsResolver) Identity() string { return r.identity }

func (r *fsResolver) OpenResource(p string) (io.ReadCloser, error) {
	var name string
	if strings.HasPrefix(p, "/") {
		name = path.Clean(strings.TrimLeft(p, "/"))
	} else {
		name = path.Join(r.base, p)
	}
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	f, err := r.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return f, nil
}

// ClasspathSource resolves a path against a Resolver each time it is opened.
type ClasspathSource struct {
	resolver Resolver
	path     string
	charset  Charset
}

// NewClasspathSource captures the resolver base, relative path and charset.
// A nil resolver yields a source whose Open fails with KindInvalidOrigin.
func NewClasspathSource(resolver Resolver, path string, cs Charset) *ClasspathSource {
	return &ClasspathSource{resolver: resolver, path: path, charset: cs.orDefault()}
}

func (s *ClasspathSource) Kind() SourceKind  { return SourceClasspath }
func (s *ClasspathSource) Resolver() Resolver { return s.resolver }
func (s *ClasspathSource) Path() string       { return s.path }
func (s *ClasspathSource) Charset() Charset   { return s.charset }

func (s *ClasspathSource) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioFailure(s.path, "open cancelled", err)
	}
	if s.resolver == nil {
		return nil, invalidOrigin(s.path, "classpath resource "+s.path+" has no resolver")
	}
	rc, err := s.resolver.OpenResource(s.path)
	if err != nil {
		id := s.resolver.Identity()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s.path, id, "could not find classpath resource "+s.path+" relative to "+id, nil)
		}
		e := ioFailure(s.path, "could not open classpath resource "+s.path+" relative to "+id, err)
		e.Context = id
		return nil, e
	}
	return newStream(rc, s.charset, s.path), nil
}
