package textres

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// ArchiveFormat identifies the container format of an archive file.
type ArchiveFormat int

const (
	ArchiveUnknown ArchiveFormat = iota
	ArchiveZip
	ArchiveTar
	ArchiveTarGzip
	ArchiveTarZstd
)

// DetectArchiveFormat infers the format from the file name.
func DetectArchiveFormat(name string) ArchiveFormat {
	n := strings.ToLower(name)
	switch {
	case strings.HasSuffix(n, ".zip"), strings.HasSuffix(n, ".jar"):
		return ArchiveZip
	case strings.HasSuffix(n, ".tar.gz"), strings.HasSuffix(n, ".tgz"):
		return ArchiveTarGzip
	case strings.HasSuffix(n, ".tar.zst"), strings.HasSuffix(n, ".tzst"):
		return ArchiveTarZstd
	case strings.HasSuffix(n, ".tar"):
		return ArchiveTar
	}
	return ArchiveUnknown
}

// ArchiveEntrySource reads a single member of an archive file. The archive is
// reopened and scanned on every Open.
type ArchiveEntrySource struct {
	fsys     afero.Fs
	archive  string
	entry    string
	charset  Charset
	declared string // archive path before a Factory base dir was applied
}

// NewArchiveEntrySource captures the filesystem, archive path, entry path and
// charset. A nil fsys means the OS filesystem.
func NewArchiveEntrySource(fsys afero.Fs, archive, entry string, cs Charset) *ArchiveEntrySource {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &ArchiveEntrySource{fsys: fsys, archive: archive, entry: entry, charset: cs.orDefault()}
}

func (s *ArchiveEntrySource) Kind() SourceKind { return SourceArchive }
func (s *ArchiveEntrySource) Archive() string  { return s.archive }
func (s *ArchiveEntrySource) Entry() string    { return s.entry }
func (s *ArchiveEntrySource) Charset() Charset { return s.charset }
func (s *ArchiveEntrySource) Fs() afero.Fs     { return s.fsys }

func (s *ArchiveEntrySource) declaredArchive() string {
	if s.declared != "" {
		return s.declared
	}
	return s.archive
}

func (s *ArchiveEntrySource) Open(ctx context.Context) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioFailure(s.entry, "open cancelled", err)
	}
	format := DetectArchiveFormat(s.archive)
	if format == ArchiveUnknown {
		e := invalidOrigin(s.entry, "unsupported archive format "+s.archive)
		e.Context = s.archive
		return nil, e
	}
	f, err := s.fsys.Open(s.archive)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s.entry, s.archive, "archive "+s.archive+" does not exist", nil)
		}
		return nil, s.fail("could not open archive "+s.archive, err)
	}
	var rc io.ReadCloser
	if format == ArchiveZip {
		rc, err = s.openZip(f)
	} else {
		rc, err = s.openTar(f, format)
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return newStream(rc, s.charset, s.entry), nil
}

func (s *ArchiveEntrySource) missing() *Error {
	return notFound(s.entry, s.archive, "could not find entry "+s.entry+" in archive "+s.archive, nil)
}

func (s *ArchiveEntrySource) fail(detail string, cause error) *Error {
	e := ioFailure(s.entry, detail, cause)
	e.Context = s.archive
	return e
}

func (s *ArchiveEntrySource) openZip(f afero.File) (io.ReadCloser, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, s.fail("could not stat archive "+s.archive, err)
	}
	zr, err := zip.NewReader(f, st.Size())
	if err != nil {
		return nil, s.fail("could not read archive "+s.archive, err)
	}
	want := normalizeEntry(s.entry)
	for _, zf := range zr.File {
		if normalizeEntry(zf.Name) != want || zf.FileInfo().IsDir() {
			continue
		}
		er, err := zf.Open()
		if err != nil {
			return nil, s.fail("could not open entry "+s.entry, err)
		}
		return &multiCloser{Reader: er, closers: []io.Closer{er, f}}, nil
	}
	return nil, s.missing()
}

func (s *ArchiveEntrySource) openTar(f afero.File, format ArchiveFormat) (io.ReadCloser, error) {
	var (
		r       io.Reader = f
		closers []io.Closer
	)
	switch format {
	case ArchiveTarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, s.fail("could not read archive "+s.archive, err)
		}
		r, closers = gz, append(closers, gz)
	case ArchiveTarZstd:
		zd, err := zstd.NewReader(f)
		if err != nil {
			return nil, s.fail("could not read archive "+s.archive, err)
		}
		r, closers = zd, append(closers, closerFunc(func() error { zd.Close(); return nil }))
	}
	release := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	want := normalizeEntry(s.entry)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			release()
			return nil, s.missing()
		}
		if err != nil {
			release()
			return nil, s.fail("could not read archive "+s.archive, err)
		}
		if normalizeEntry(hdr.Name) != want || !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		return &multiCloser{Reader: tr, closers: append(closers, f)}, nil
	}
}

func normalizeEntry(name string) string {
	name = strings.TrimLeft(path.Clean("/"+name), "/")
	return name
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
