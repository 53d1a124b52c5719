package codec_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"

	"github.com/reoring/textres"
	"github.com/reoring/textres/codec"
)

func testFactory(t *testing.T) *textres.Factory {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/srv/notes.txt", []byte("n\xf8tes"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := textres.NewFSResolver("app.Main", fstest.MapFS{"app/help.txt": {Data: []byte("usage: app")}}, "app")
	return textres.NewFactory(textres.WithFs(fsys), textres.WithResolvers(res))
}

func fixtures(t *testing.T, f *textres.Factory) []*textres.TextResource {
	t.Helper()
	cp, err := f.FromClasspathID("app.Main", "help.txt", textres.Charset{})
	if err != nil {
		t.Fatal(err)
	}
	uri, err := f.FromInsecureURI("http://example.com/x.txt", textres.Charset{})
	if err != nil {
		t.Fatal(err)
	}
	return []*textres.TextResource{
		f.FromString("hello\nworld"),
		f.FromString(""),
		f.FromFile("/srv/notes.txt", textres.MustCharset("ISO-8859-1")),
		f.FromArchiveEntry("/srv/app.zip", "docs/readme.txt", textres.Charset{}),
		cp,
		uri,
	}
}

type encoder interface {
	Encode(context.Context, *textres.TextResource) error
}

type decoder interface {
	Decode(context.Context) (*textres.TextResource, error)
}

func roundTrip(t *testing.T, enc encoder, dec func() decoder) {
	t.Helper()
	ctx := context.Background()
	f := testFactory(t)
	in := fixtures(t, f)
	for _, r := range in {
		if err := enc.Encode(ctx, r); err != nil {
			t.Fatalf("encode %s: %v", r, err)
		}
	}
	d := dec()
	for i, want := range in {
		got, err := d.Decode(ctx)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if got.DisplayName() != want.DisplayName() || got.Source().Kind() != want.Source().Kind() {
			t.Fatalf("decode %d: got %s (%v) want %s (%v)", i, got, got.Source().Kind(), want, want.Source().Kind())
		}
		if !got.Charset().Equal(want.Charset()) {
			t.Fatalf("decode %d: charset %v want %v", i, got.Charset(), want.Charset())
		}
		if want.Source().Kind() == textres.SourceURI || want.Source().Kind() == textres.SourceArchive {
			continue
		}
		a, err1 := want.Text(ctx)
		b, err2 := got.Text(ctx)
		if err1 != nil || err2 != nil || a != b {
			t.Fatalf("decode %d: err1=%v err2=%v v=%q want %q", i, err1, err2, b, a)
		}
	}
	if _, err := d.Decode(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}

func TestBinary_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	roundTrip(t, codec.NewBinaryEncoder(&buf), func() decoder {
		return codec.NewBinaryDecoder(&buf, testFactory(t))
	})
}

func TestJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	roundTrip(t, codec.NewJSONEncoder(&buf), func() decoder {
		return codec.NewJSONDecoder(&buf, testFactory(t))
	})
}

func TestBinary_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	if err := codec.NewBinaryEncoder(&buf).EncodeDescriptor(textres.Descriptor{Kind: textres.SourceFile, Path: "/a/b.txt"}); err != nil {
		t.Fatal(err)
	}
	full := buf.Bytes()
	for _, in := range [][]byte{
		full[:len(full)-2],
		{0x07, 0x00},
		{0x00, 0xff, 0xff, 0xff, 0xff, 0x7f},
	} {
		_, err := codec.NewBinaryDecoder(bytes.NewReader(in), textres.NewFactory()).DecodeDescriptor()
		if !errors.Is(err, codec.ErrCorrupt) {
			t.Fatalf("% x: expected corrupt, got %v", in, err)
		}
	}
}

func TestBinary_RejectsInvalidDescriptor(t *testing.T) {
	var buf bytes.Buffer
	err := codec.NewBinaryEncoder(&buf).EncodeDescriptor(textres.Descriptor{Kind: textres.SourceClasspath, Path: "x"})
	if !errors.Is(err, textres.ErrInvalidOrigin) || buf.Len() != 0 {
		t.Fatalf("err=%v written=%d", err, buf.Len())
	}
}

func TestJSON_Descriptor(t *testing.T) {
	b, err := codec.MarshalDescriptor(textres.Descriptor{Kind: textres.SourceArchive, Archive: "lib.jar", Path: "META-INF/x.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"kind":"archive"`) {
		t.Fatalf("kind not rendered by name: %s", b)
	}
	d, err := codec.UnmarshalDescriptor(b)
	if err != nil || d.Archive != "lib.jar" || d.Path != "META-INF/x.txt" {
		t.Fatalf("err=%v d=%+v", err, d)
	}

	for _, in := range []string{
		`{"kind":"file","path":"a","extra":1}`,
		`{"kind":"carrier-pigeon"}`,
		`{"kind":"uri"}`,
	} {
		_, err := codec.NewJSONDecoder(strings.NewReader(in), textres.NewFactory()).DecodeDescriptor()
		if !errors.Is(err, codec.ErrCorrupt) {
			t.Fatalf("%s: expected corrupt, got %v", in, err)
		}
	}
}

func TestRoundTrip_RelativeBaseDir(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "conf/a.txt", []byte("from conf"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := textres.NewFactory(textres.WithFs(fsys), textres.WithBaseDir("conf"))
	r := f.FromFile("a.txt", textres.Charset{})

	for _, format := range []string{"binary", "json"} {
		var buf bytes.Buffer
		var enc encoder = codec.NewJSONEncoder(&buf)
		var dec decoder = codec.NewJSONDecoder(&buf, f)
		if format == "binary" {
			enc, dec = codec.NewBinaryEncoder(&buf), codec.NewBinaryDecoder(&buf, f)
		}
		if err := enc.Encode(ctx, r); err != nil {
			t.Fatalf("%s encode: %v", format, err)
		}
		back, err := dec.Decode(ctx)
		if err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		got, err := back.Text(ctx)
		if err != nil || got != "from conf" {
			t.Fatalf("%s err=%v v=%q", format, err, got)
		}
	}
}

func TestBinary_InsecureFlagIsRecorded(t *testing.T) {
	f := textres.NewFactory()
	var buf bytes.Buffer
	enc := codec.NewBinaryEncoder(&buf)
	for _, insecure := range []bool{true, false} {
		d := textres.Descriptor{Kind: textres.SourceURI, URI: "http://example.com/x.txt", Insecure: insecure}
		if err := enc.EncodeDescriptor(d); err != nil {
			t.Fatal(err)
		}
	}
	dec := codec.NewBinaryDecoder(&buf, f)
	if r, err := dec.Decode(context.Background()); err != nil || r.Source().Kind() != textres.SourceURI {
		t.Fatalf("insecure record err=%v", err)
	}
	if _, err := dec.Decode(context.Background()); !errors.Is(err, textres.ErrInvalidOrigin) {
		t.Fatalf("plain http without the insecure flag must be refused, got %v", err)
	}

	bad := []byte{0x01, 0x01, 'x', 0x00, 0x04}
	if _, err := codec.NewBinaryDecoder(bytes.NewReader(bad), f).DecodeDescriptor(); !errors.Is(err, codec.ErrCorrupt) {
		t.Fatalf("unknown flags should be corrupt, got %v", err)
	}
}
