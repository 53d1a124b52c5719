package textres

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset controls byte-to-character decoding of opened streams. The zero
// value means the default charset (UTF-8).
type Charset struct {
	name   string
	enc    encoding.Encoding
	strict bool
}

// UTF8 is the default charset.
var UTF8 = Charset{name: "UTF-8", enc: unicode.UTF8}

// LookupCharset resolves an IANA charset name or alias (case-insensitive).
func LookupCharset(name string) (Charset, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(n)
	if err != nil {
		return Charset{}, &Error{Kind: KindInvalidOrigin, Origin: n, Detail: "unknown charset " + n, Cause: err}
	}
	if enc == nil {
		return Charset{}, invalidOrigin(n, "unsupported charset "+n)
	}
	if canonical, err := ianaindex.IANA.Name(enc); err == nil && canonical != "" {
		n = canonical
	}
	return Charset{name: n, enc: enc}, nil
}

// MustCharset is like LookupCharset but panics on unknown names. Intended for
// package-level variables.
func MustCharset(name string) Charset {
	c, err := LookupCharset(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the canonical charset name.
func (c Charset) Name() string { return c.orDefault().name }

// String implements fmt.Stringer.
func (c Charset) String() string {
	if c.strict {
		return c.Name() + " (strict)"
	}
	return c.Name()
}

// IsZero reports whether c is the unset zero value.
func (c Charset) IsZero() bool { return c.enc == nil }

// IsStrict reports whether malformed input is reported instead of replaced.
func (c Charset) IsStrict() bool { return c.strict }

// Strict returns a copy of c that fails with KindMalformedInput on invalid
// UTF-8 input and on characters the charset cannot encode. Other charsets
// keep substituting U+FFFD on decode.
func (c Charset) Strict() Charset {
	c = c.orDefault()
	c.strict = true
	return c
}

// Equal reports whether both charsets decode identically.
func (c Charset) Equal(o Charset) bool {
	return strings.EqualFold(c.Name(), o.Name()) && c.strict == o.strict
}

// Encoding exposes the underlying x/text encoding.
func (c Charset) Encoding() encoding.Encoding { return c.orDefault().enc }

func (c Charset) orDefault() Charset {
	if c.enc == nil {
		return UTF8
	}
	return c
}

func (c Charset) isUTF8() bool {
	c = c.orDefault()
	return c.enc == unicode.UTF8 || strings.EqualFold(c.name, "UTF-8")
}

// decoder wraps r so that reads yield UTF-8.
func (c Charset) decoder(r io.Reader) io.Reader {
	c = c.orDefault()
	if c.isUTF8() {
		if c.strict {
			return transform.NewReader(r, encoding.UTF8Validator)
		}
		return transform.NewReader(r, unicode.UTF8.NewDecoder())
	}
	return transform.NewReader(r, c.enc.NewDecoder())
}

// encoder wraps w so that UTF-8 written to it is stored in the charset. The
// returned writer must be closed to flush pending output.
func (c Charset) encoder(w io.Writer) io.WriteCloser {
	c = c.orDefault()
	if c.isUTF8() {
		if c.strict {
			return transform.NewWriter(w, encoding.UTF8Validator)
		}
		return nopWriteCloser{w}
	}
	if c.strict {
		return transform.NewWriter(w, c.enc.NewEncoder())
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(c.enc.NewEncoder()))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
