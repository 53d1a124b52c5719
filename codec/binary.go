package codec

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/reoring/textres"
)

// ErrCorrupt reports a record that cannot be decoded.
var ErrCorrupt = errors.New("codec: corrupt record")

// maxStringLen bounds a single encoded string so corrupt input cannot force
// huge allocations.
const maxStringLen = 64 << 20

const flagInsecure = 1

// BinaryEncoder writes records of the form
//
//	uvarint(kind) string... [flags]
//
// where each string is uvarint(len) followed by its UTF-8 bytes, and the
// strings per kind are:
//
//	string     text
//	uri        uri, charset, then uvarint flags (1 = insecure)
//	archive    archive, entry, charset
//	file       path, charset
//	classpath  resolver identity, path, charset
type BinaryEncoder struct {
	w   io.Writer
	buf []byte
}

// NewBinaryEncoder returns an encoder writing to w.
func NewBinaryEncoder(w io.Writer) *BinaryEncoder { return &BinaryEncoder{w: w} }

// Encode describes r and writes one record.
func (e *BinaryEncoder) Encode(ctx context.Context, r *textres.TextResource) error {
	d, err := textres.Describe(ctx, r)
	if err != nil {
		return err
	}
	return e.EncodeDescriptor(d)
}

// EncodeDescriptor writes d as one record.
func (e *BinaryEncoder) EncodeDescriptor(d textres.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	e.buf = binary.AppendUvarint(e.buf[:0], uint64(d.Kind))
	switch d.Kind {
	case textres.SourceString:
		e.str(d.Text)
	case textres.SourceURI:
		e.str(d.URI)
		e.str(d.Charset)
		var flags uint64
		if d.Insecure {
			flags = flagInsecure
		}
		e.buf = binary.AppendUvarint(e.buf, flags)
	case textres.SourceArchive:
		e.str(d.Archive)
		e.str(d.Path)
		e.str(d.Charset)
	case textres.SourceFile:
		e.str(d.Path)
		e.str(d.Charset)
	case textres.SourceClasspath:
		e.str(d.Resolver)
		e.str(d.Path)
		e.str(d.Charset)
	}
	_, err := e.w.Write(e.buf)
	return err
}

func (e *BinaryEncoder) str(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// BinaryDecoder reads records written by BinaryEncoder.
type BinaryDecoder struct {
	r       *bufio.Reader
	factory *textres.Factory
}

// NewBinaryDecoder returns a decoder reading from r that rebuilds resources
// through f.
func NewBinaryDecoder(r io.Reader, f *textres.Factory) *BinaryDecoder {
	return &BinaryDecoder{r: bufio.NewReader(r), factory: f}
}

// Decode reads the next record and rebuilds its resource.
func (d *BinaryDecoder) Decode(ctx context.Context) (*textres.TextResource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	desc, err := d.DecodeDescriptor()
	if err != nil {
		return nil, err
	}
	return d.factory.FromDescriptor(desc)
}

// DecodeDescriptor reads the next record. It returns io.EOF when the input
// ends cleanly between records.
func (d *BinaryDecoder) DecodeDescriptor() (textres.Descriptor, error) {
	tag, err := binary.ReadUvarint(d.r)
	if err != nil {
		if err == io.EOF {
			return textres.Descriptor{}, io.EOF
		}
		return textres.Descriptor{}, fmt.Errorf("%w: reading kind: %v", ErrCorrupt, err)
	}
	out := textres.Descriptor{Kind: textres.SourceKind(tag)}
	var fields []*string
	switch out.Kind {
	case textres.SourceString:
		fields = []*string{&out.Text}
	case textres.SourceURI:
		fields = []*string{&out.URI, &out.Charset}
	case textres.SourceArchive:
		fields = []*string{&out.Archive, &out.Path, &out.Charset}
	case textres.SourceFile:
		fields = []*string{&out.Path, &out.Charset}
	case textres.SourceClasspath:
		fields = []*string{&out.Resolver, &out.Path, &out.Charset}
	default:
		return textres.Descriptor{}, fmt.Errorf("%w: unknown kind %d", ErrCorrupt, tag)
	}
	for _, f := range fields {
		if *f, err = d.str(); err != nil {
			return textres.Descriptor{}, err
		}
	}
	if out.Kind == textres.SourceURI {
		flags, err := binary.ReadUvarint(d.r)
		if err != nil {
			return textres.Descriptor{}, fmt.Errorf("%w: reading flags: %v", ErrCorrupt, unexpected(err))
		}
		if flags&^flagInsecure != 0 {
			return textres.Descriptor{}, fmt.Errorf("%w: unknown uri flags %#x", ErrCorrupt, flags)
		}
		out.Insecure = flags&flagInsecure != 0
	}
	return out, nil
}

func (d *BinaryDecoder) str() (string, error) {
	n, err := binary.ReadUvarint(d.r)
	if err != nil {
		return "", fmt.Errorf("%w: reading length: %v", ErrCorrupt, unexpected(err))
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string of %d bytes exceeds limit", ErrCorrupt, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", fmt.Errorf("%w: reading string: %v", ErrCorrupt, unexpected(err))
	}
	return string(b), nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
