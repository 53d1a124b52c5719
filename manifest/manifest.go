// Package manifest loads named text resource declarations from YAML or TOML.
//
//	charset: UTF-8
//	base_dir: templates
//	resources:
//	  - name: greeting
//	    kind: classpath
//	    resolver: app
//	    path: /data/greeting.txt
//	  - name: license
//	    kind: archive
//	    archive: dist/app.zip
//	    path: LICENSE
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/reoring/textres"
)

// Format selects the manifest syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatFor infers the format from a file name. Anything that is not .toml
// is read as YAML.
func FormatFor(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Manifest is the decoded file.
type Manifest struct {
	// Charset applies to entries that do not name one (URIs excepted).
	Charset string `yaml:"charset,omitempty" toml:"charset,omitempty"`
	// BaseDir prefixes relative file and archive paths. A relative BaseDir is
	// itself relative to the manifest file.
	BaseDir   string  `yaml:"base_dir,omitempty" toml:"base_dir,omitempty"`
	Resources []Entry `yaml:"resources" toml:"resources"`

	dir string
}

// Entry is one named resource.
type Entry struct {
	Name               string `yaml:"name" toml:"name"`
	textres.Descriptor `yaml:",inline"`
}

// Parse decodes data in the given format and validates it.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("manifest: decode toml: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: decode yaml: %w", err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path on fsys.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	m, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Validate checks names and descriptors.
func (m *Manifest) Validate() error {
	if m.Charset != "" {
		if _, err := textres.LookupCharset(m.Charset); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	seen := make(map[string]bool, len(m.Resources))
	for i, e := range m.Resources {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("manifest: resource #%d has no name", i+1)
		}
		if seen[e.Name] {
			return fmt.Errorf("manifest: duplicate resource name %q", e.Name)
		}
		seen[e.Name] = true
		if err := e.Descriptor.Validate(); err != nil {
			return fmt.Errorf("manifest: resource %q: %w", e.Name, err)
		}
	}
	return nil
}

// Descriptor returns the entry's descriptor with manifest-level defaults
// applied.
func (m *Manifest) Descriptor(e Entry) textres.Descriptor {
	d := e.Descriptor
	if d.Charset == "" && d.Kind != textres.SourceURI && d.Kind != textres.SourceString {
		d.Charset = m.Charset
	}
	base := m.baseDir()
	switch d.Kind {
	case textres.SourceFile:
		d.Path = join(base, d.Path)
	case textres.SourceArchive:
		d.Archive = join(base, d.Archive)
	}
	return d
}

func (m *Manifest) baseDir() string {
	if m.BaseDir == "" || filepath.IsAbs(m.BaseDir) {
		return m.BaseDir
	}
	if m.dir == "" || m.dir == "." {
		return m.BaseDir
	}
	return filepath.Join(m.dir, m.BaseDir)
}

func join(base, p string) string {
	if base == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Build creates every declared resource through f. Each resource reports its
// manifest name in its display name.
func (m *Manifest) Build(f *textres.Factory) (*Set, error) {
	set := &Set{byName: make(map[string]*textres.TextResource, len(m.Resources))}
	for _, e := range m.Resources {
		r, err := f.FromDescriptor(m.Descriptor(e))
		if err != nil {
			return nil, fmt.Errorf("manifest: resource %q: %w", e.Name, err)
		}
		r = r.Named(e.Name + " (" + r.DisplayName() + ")")
		set.names = append(set.names, e.Name)
		set.byName[e.Name] = r
	}
	return set, nil
}

// Set is the ordered collection of built resources.
type Set struct {
	names  []string
	byName map[string]*textres.TextResource
}

// Names returns the resource names in declaration order.
func (s *Set) Names() []string { return append([]string(nil), s.names...) }

// Get returns the named resource.
func (s *Set) Get(name string) (*textres.TextResource, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Len returns the number of resources.
func (s *Set) Len() int { return len(s.names) }
