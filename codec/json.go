package codec

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/textres"
)

// JSONEncoder writes one descriptor object per line.
type JSONEncoder struct {
	enc *json.Encoder
}

// NewJSONEncoder returns an encoder writing to w.
func NewJSONEncoder(w io.Writer) *JSONEncoder { return &JSONEncoder{enc: json.NewEncoder(w)} }

// SetIndent forwards to the underlying encoder.
func (e *JSONEncoder) SetIndent(prefix, indent string) { e.enc.SetIndent(prefix, indent) }

// Encode describes r and writes it.
func (e *JSONEncoder) Encode(ctx context.Context, r *textres.TextResource) error {
	d, err := textres.Describe(ctx, r)
	if err != nil {
		return err
	}
	return e.EncodeDescriptor(d)
}

// EncodeDescriptor writes d.
func (e *JSONEncoder) EncodeDescriptor(d textres.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return e.enc.Encode(d)
}

// JSONDecoder reads descriptors written by JSONEncoder.
type JSONDecoder struct {
	dec     *json.Decoder
	factory *textres.Factory
}

// NewJSONDecoder returns a decoder reading from r that rebuilds resources
// through f. Unknown fields are rejected.
func NewJSONDecoder(r io.Reader, f *textres.Factory) *JSONDecoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return &JSONDecoder{dec: dec, factory: f}
}

// Decode reads the next descriptor and rebuilds its resource.
func (d *JSONDecoder) Decode(ctx context.Context) (*textres.TextResource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	desc, err := d.DecodeDescriptor()
	if err != nil {
		return nil, err
	}
	return d.factory.FromDescriptor(desc)
}

// DecodeDescriptor reads the next descriptor; io.EOF marks the end of input.
func (d *JSONDecoder) DecodeDescriptor() (textres.Descriptor, error) {
	var out textres.Descriptor
	if err := d.dec.Decode(&out); err != nil {
		if err == io.EOF {
			return textres.Descriptor{}, io.EOF
		}
		return textres.Descriptor{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := out.Validate(); err != nil {
		return textres.Descriptor{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

// MarshalDescriptor returns the JSON form of d.
func MarshalDescriptor(d textres.Descriptor) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalDescriptor parses the JSON form of a descriptor.
func UnmarshalDescriptor(b []byte) (textres.Descriptor, error) {
	var out textres.Descriptor
	if err := json.Unmarshal(b, &out); err != nil {
		return textres.Descriptor{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := out.Validate(); err != nil {
		return textres.Descriptor{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
