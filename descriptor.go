package textres

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Descriptor is a plain description of a resource origin: enough to rebuild an
// equivalent TextResource through a Factory. Which fields apply depends on
// Kind:
//
//	string     Text
//	uri        URI, Charset, Insecure
//	archive    Archive, Path (the entry), Charset
//	file       Path, Charset
//	classpath  Resolver, Path, Charset
type Descriptor struct {
	Kind     SourceKind `json:"kind" yaml:"kind" toml:"kind"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	URI      string     `json:"uri,omitempty" yaml:"uri,omitempty" toml:"uri,omitempty"`
	Archive  string     `json:"archive,omitempty" yaml:"archive,omitempty" toml:"archive,omitempty"`
	Path     string     `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Resolver string     `json:"resolver,omitempty" yaml:"resolver,omitempty" toml:"resolver,omitempty"`
	Charset  string     `json:"charset,omitempty" yaml:"charset,omitempty" toml:"charset,omitempty"`
	Insecure bool       `json:"insecure,omitempty" yaml:"insecure,omitempty" toml:"insecure,omitempty"`
}

// MarshalText renders the kind by name.
func (k SourceKind) MarshalText() ([]byte, error) {
	if k < SourceString || k > SourceClasspath {
		return nil, fmt.Errorf("textres: unknown source kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *SourceKind) UnmarshalText(b []byte) error {
	v, ok := ParseSourceKind(string(b))
	if !ok {
		return fmt.Errorf("textres: unknown source kind %q", string(b))
	}
	*k = v
	return nil
}

// Validate checks that the fields required by Kind are present.
func (d Descriptor) Validate() error {
	var missing []string
	need := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	switch d.Kind {
	case SourceString:
		// SourceString is the zero Kind, so origin fields here mostly mean
		// the kind was left out.
		var stray []string
		for field, v := range map[string]string{"uri": d.URI, "archive": d.Archive, "path": d.Path, "resolver": d.Resolver} {
			if v != "" {
				stray = append(stray, field)
			}
		}
		if len(stray) > 0 {
			sort.Strings(stray)
			return invalidOrigin(d.Path, "string descriptor sets "+strings.Join(stray, ", ")+"; is the kind missing?")
		}
	case SourceURI:
		need("uri", d.URI)
	case SourceArchive:
		need("archive", d.Archive)
		need("path", d.Path)
	case SourceFile:
		need("path", d.Path)
	case SourceClasspath:
		need("resolver", d.Resolver)
		need("path", d.Path)
	default:
		return invalidOrigin("", fmt.Sprintf("unknown source kind %d", int(d.Kind)))
	}
	if len(missing) > 0 {
		return invalidOrigin(d.Path, d.Kind.String()+" descriptor is missing "+strings.Join(missing, ", "))
	}
	return nil
}

// Describe captures the origin of r. Resources backed by a source outside the
// built-in variants are read once and described as a string.
func Describe(ctx context.Context, r *TextResource) (Descriptor, error) {
	switch s := r.Source().(type) {
	case *StringSource:
		return Descriptor{Kind: SourceString, Text: s.Text()}, nil
	case *URISource:
		u := s.URI()
		d := Descriptor{Kind: SourceURI, URI: u.String(), Insecure: strings.EqualFold(u.Scheme, "http")}
		if !s.Charset().IsZero() {
			d.Charset = s.Charset().Name()
		}
		return d, nil
	case *ArchiveEntrySource:
		return Descriptor{Kind: SourceArchive, Archive: s.declaredArchive(), Path: s.Entry(), Charset: s.Charset().Name()}, nil
	case *FileSource:
		return Descriptor{Kind: SourceFile, Path: s.declaredPath(), Charset: s.Charset().Name()}, nil
	case *ClasspathSource:
		if s.Resolver() == nil {
			return Descriptor{}, invalidOrigin(s.Path(), "classpath resource "+s.Path()+" has no resolver")
		}
		return Descriptor{Kind: SourceClasspath, Resolver: s.Resolver().Identity(), Path: s.Path(), Charset: s.Charset().Name()}, nil
	}
	text, err := r.Text(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Kind: SourceString, Text: text}, nil
}

// FromDescriptor rebuilds a resource from d.
func (f *Factory) FromDescriptor(d Descriptor) (*TextResource, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var cs Charset
	if d.Charset != "" {
		c, err := LookupCharset(d.Charset)
		if err != nil {
			return nil, err
		}
		cs = c
	}
	switch d.Kind {
	case SourceURI:
		if d.Insecure {
			return f.FromInsecureURI(d.URI, cs)
		}
		return f.FromURI(d.URI, cs)
	case SourceArchive:
		return f.FromArchiveEntry(d.Archive, d.Path, cs), nil
	case SourceFile:
		return f.FromFile(d.Path, cs), nil
	case SourceClasspath:
		return f.FromClasspathID(d.Resolver, d.Path, cs)
	default:
		return f.FromString(d.Text), nil
	}
}
