package textres

import (
	"context"
	"errors"
	"io/fs"

	"github.com/spf13/afero"
)

// FileSource reads a file from an afero filesystem.
type FileSource struct {
	fsys     afero.Fs
	path     string
	charset  Charset
	declared string // path before a Factory base dir was applied
}

// NewFileSource captures the filesystem, path and charset. A nil fsys means
// the OS filesystem.
func NewFileSource(fsys afero.Fs, path string, cs Charset) *FileSource {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileSource{fsys: fsys, path: path, charset: cs.orDefault()}
}

func (s *FileSource) Kind() SourceKind { return SourceFile }
func (s *FileSource) Path() string     { return s.path }
func (s *FileSource) Charset() Charset { return s.charset }
func (s *FileSource) Fs() afero.Fs     { return s.fsys }

func (s *FileSource) declaredPath() string {
	if s.declared != "" {
		return s.declared
	}
	return s.path
}

func (s *FileSource) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioFailure(s.path, "open cancelled", err)
	}
	f, err := s.fsys.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s.path, s.fsys.Name(), "file "+s.path+" does not exist", nil)
		}
		return nil, ioFailure(s.path, "could not open file "+s.path, err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		_ = f.Close()
		return nil, ioFailure(s.path, "file "+s.path+" is a directory", nil)
	}
	return newStream(f, s.charset, s.path), nil
}
