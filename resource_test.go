package textres_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/textres"
)

func sampleResolver() textres.Resolver {
	return textres.NewFSResolver("example.Locator", fstest.MapFS{
		"data/sample.txt": {Data: []byte("hello")},
		"data/lines.txt":  {Data: []byte("one\r\ntwo\nthree")},
		"data/latin1.txt": {Data: []byte("caf\xe9")},
		"pkg/rel.txt":     {Data: []byte("relative")},
	}, "pkg")
}

func TestClasspath_Text_ReturnsContent(t *testing.T) {
	ctx := context.Background()
	r := textres.NewClasspathResource(sampleResolver(), "/data/sample.txt", textres.UTF8)
	got, err := r.Text(ctx)
	if err != nil || got != "hello" {
		t.Fatalf("text err=%v v=%q", err, got)
	}
	if r.DisplayName() != "Classpath resource '/data/sample.txt'" {
		t.Fatalf("unexpected display name: %q", r.DisplayName())
	}
}

func TestClasspath_RelativePathUsesBaseDir(t *testing.T) {
	r := textres.NewClasspathResource(sampleResolver(), "rel.txt", textres.UTF8)
	got, err := r.Text(context.Background())
	if err != nil || got != "relative" {
		t.Fatalf("text err=%v v=%q", err, got)
	}
}

func TestClasspath_Missing_NotFoundNamesPathAndBase(t *testing.T) {
	src := textres.NewClasspathSource(sampleResolver(), "/data/missing.txt", textres.UTF8)
	_, err := src.Open(context.Background())
	if !errors.Is(err, textres.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"/data/missing.txt", "example.Locator"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q does not mention %q", msg, want)
		}
	}
	if errors.Is(err, textres.ErrIOFailure) {
		t.Fatalf("not-found must not be an io failure")
	}
}

func TestResource_ErrorsCarryDisplayName(t *testing.T) {
	r := textres.NewClasspathResource(sampleResolver(), "/data/missing.txt", textres.UTF8)
	for i := 0; i < 2; i++ {
		_, err := r.Text(context.Background())
		if !textres.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
		e, ok := textres.AsError(err)
		if !ok || e.Resource != r.DisplayName() {
			t.Fatalf("expected resource %q on error, got %+v", r.DisplayName(), e)
		}
		if !strings.HasPrefix(err.Error(), r.DisplayName()) {
			t.Fatalf("message %q does not start with display name", err.Error())
		}
	}
	if r.DisplayName() != "Classpath resource '/data/missing.txt'" {
		t.Fatalf("display name changed: %q", r.DisplayName())
	}
}

func TestSource_OpenTwice_IndependentIdenticalStreams(t *testing.T) {
	ctx := context.Background()
	src := textres.NewClasspathSource(sampleResolver(), "/data/lines.txt", textres.UTF8)
	a, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	first, err := a.ReadLine()
	if err != nil || first != "one" {
		t.Fatalf("a line err=%v v=%q", err, first)
	}
	all, err := io.ReadAll(b)
	if err != nil {
		t.Fatalf("read b: %v", err)
	}
	rest, err := io.ReadAll(a)
	if err != nil {
		t.Fatalf("read a: %v", err)
	}
	if string(all) != "one\r\ntwo\nthree" || "one\r\n"+string(rest) != string(all) {
		t.Fatalf("streams diverged: a=%q b=%q", rest, all)
	}
}

func TestResource_PartialReadThenReopen(t *testing.T) {
	ctx := context.Background()
	r := textres.NewClasspathResource(sampleResolver(), "/data/sample.txt", textres.UTF8)
	s, err := r.Reader(ctx)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	ch, _, err := s.ReadRune()
	if err != nil || ch != 'h' {
		t.Fatalf("rune err=%v v=%q", err, ch)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close must be a no-op: %v", err)
	}
	if _, err := s.Read(make([]byte, 1)); !textres.IsIOFailure(err) {
		t.Fatalf("read after close should fail, got %v", err)
	}
	got, err := r.Text(ctx)
	if err != nil || got != "hello" {
		t.Fatalf("reopen err=%v v=%q", err, got)
	}
}

func TestCharset_ChangesOnlyDecoding(t *testing.T) {
	ctx := context.Background()
	latin1, err := textres.LookupCharset("ISO-8859-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	got, err := textres.NewClasspathResource(sampleResolver(), "/data/latin1.txt", latin1).Text(ctx)
	if err != nil || got != "café" {
		t.Fatalf("latin1 err=%v v=%q", err, got)
	}
	got, err = textres.NewClasspathResource(sampleResolver(), "/data/latin1.txt", textres.UTF8).Text(ctx)
	if err != nil || got != "caf�" {
		t.Fatalf("utf8 err=%v v=%q", err, got)
	}
}

func TestCharset_StrictReportsMalformedInput(t *testing.T) {
	r := textres.NewClasspathResource(sampleResolver(), "/data/latin1.txt", textres.UTF8.Strict())
	_, err := r.Text(context.Background())
	if !errors.Is(err, textres.ErrMalformedInput) || !textres.IsIOFailure(err) {
		t.Fatalf("expected malformed input io failure, got %v", err)
	}
	if textres.IsNotFound(err) {
		t.Fatalf("malformed input must not be not-found")
	}
	if !strings.Contains(err.Error(), r.DisplayName()) {
		t.Fatalf("message %q lacks display name", err.Error())
	}
}

func TestLookupCharset(t *testing.T) {
	cs, err := textres.LookupCharset("utf-8")
	if err != nil || cs.Name() != "UTF-8" {
		t.Fatalf("lookup err=%v name=%q", err, cs.Name())
	}
	if _, err := textres.LookupCharset("no-such-charset"); !errors.Is(err, textres.ErrInvalidOrigin) {
		t.Fatalf("expected invalid origin, got %v", err)
	}
	var zero textres.Charset
	if !zero.IsZero() || zero.Name() != "UTF-8" {
		t.Fatalf("zero charset should default to UTF-8, got %q", zero.Name())
	}
}

// failingResolver serves a stream that fails after a prefix and records Close.
type failingResolver struct {
	closed   *bool
	closeErr error
	readErr  error
}

func (r failingResolver) Identity() string { return "failing" }

func (r failingResolver) OpenResource(string) (io.ReadCloser, error) {
	var rd io.Reader = strings.NewReader("partial")
	if r.readErr != nil {
		rd = io.MultiReader(rd, errReader{r.readErr})
	}
	return &trackingCloser{Reader: rd, closed: r.closed, err: r.closeErr}, nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

type trackingCloser struct {
	io.Reader
	closed *bool
	err    error
}

func (c *trackingCloser) Close() error {
	*c.closed = true
	return c.err
}

func TestText_ReadFailureIsIOFailureAndReleases(t *testing.T) {
	closed := false
	boom := errors.New("disk on fire")
	r := textres.NewClasspathResource(failingResolver{closed: &closed, readErr: boom}, "x.txt", textres.UTF8)
	_, err := r.Text(context.Background())
	if !textres.IsIOFailure(err) || textres.IsNotFound(err) {
		t.Fatalf("expected io failure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), r.DisplayName()) {
		t.Fatalf("message %q lacks display name", err.Error())
	}
	if !closed {
		t.Fatalf("stream was not released")
	}
}

func TestText_CloseFailureIsIOFailure(t *testing.T) {
	closed := false
	r := textres.NewClasspathResource(failingResolver{closed: &closed, closeErr: errors.New("close failed")}, "x.txt", textres.UTF8)
	_, err := r.Text(context.Background())
	if !textres.IsIOFailure(err) {
		t.Fatalf("expected io failure from close, got %v", err)
	}
	if !closed {
		t.Fatalf("close not called")
	}
}

func TestResource_ConcurrentReads(t *testing.T) {
	r := textres.NewClasspathResource(sampleResolver(), "/data/sample.txt", textres.UTF8)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			got, err := r.Text(ctx)
			if err != nil {
				return err
			}
			if got != "hello" {
				return errors.New("unexpected content " + got)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent read: %v", err)
	}
}

func TestFile_ObservesChangesBetweenReads(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/work/notes.txt", []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := textres.NewFileResource(fsys, "/work/notes.txt", textres.Charset{})
	if got, err := r.Text(ctx); err != nil || got != "v1" {
		t.Fatalf("first err=%v v=%q", err, got)
	}
	if err := afero.WriteFile(fsys, "/work/notes.txt", []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := r.Text(ctx); err != nil || got != "v2" {
		t.Fatalf("second err=%v v=%q", err, got)
	}
	if r.DisplayName() != "File '/work/notes.txt'" {
		t.Fatalf("unexpected display name %q", r.DisplayName())
	}
}

func TestFile_MissingAndDirectory(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	_ = fsys.MkdirAll("/work/dir", 0o755)

	_, err := textres.NewFileResource(fsys, "/work/nope.txt", textres.UTF8).Text(ctx)
	if !textres.IsNotFound(err) || !strings.Contains(err.Error(), "/work/nope.txt") {
		t.Fatalf("expected not found naming the file, got %v", err)
	}
	_, err = textres.NewFileResource(fsys, "/work/dir", textres.UTF8).Text(ctx)
	if !textres.IsIOFailure(err) {
		t.Fatalf("expected io failure for directory, got %v", err)
	}
}

func TestString_Resource(t *testing.T) {
	r := textres.NewStringResource("literal ✓")
	got, err := r.Text(context.Background())
	if err != nil || got != "literal ✓" {
		t.Fatalf("text err=%v v=%q", err, got)
	}
	b, err := r.Bytes(context.Background())
	if err != nil || string(b) != "literal ✓" {
		t.Fatalf("bytes err=%v v=%q", err, b)
	}
	if r.Source().Kind() != textres.SourceString || !r.Charset().Equal(textres.UTF8) {
		t.Fatalf("unexpected kind/charset %v %v", r.Source().Kind(), r.Charset())
	}
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := textres.NewClasspathResource(sampleResolver(), "/data/sample.txt", textres.UTF8).Text(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCopyTo_AndAsFile_Reencode(t *testing.T) {
	ctx := context.Background()
	latin1 := textres.MustCharset("ISO-8859-1")
	r := textres.NewStringResource("café")

	var sb strings.Builder
	if err := r.CopyTo(ctx, &sb, latin1); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if sb.String() != "caf\xe9" {
		t.Fatalf("unexpected encoding %q", sb.String())
	}

	fsys := afero.NewMemMapFs()
	_ = fsys.MkdirAll("/tmp", 0o755)
	name, err := r.AsFile(ctx, fsys, "/tmp", textres.UTF8)
	if err != nil {
		t.Fatalf("as file: %v", err)
	}
	data, err := afero.ReadFile(fsys, name)
	if err != nil || string(data) != "café" {
		t.Fatalf("file err=%v v=%q", err, data)
	}
}

func TestCopyTo_StrictUnrepresentable(t *testing.T) {
	latin1 := textres.MustCharset("ISO-8859-1").Strict()
	var sb strings.Builder
	err := textres.NewStringResource("snow ☃").CopyTo(context.Background(), &sb, latin1)
	if !errors.Is(err, textres.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}
