// Package textres provides lazily-resolved text resources.
//
// A TextResource is a named handle over a CharacterSource. The origin is fixed
// when the resource is built (an fs.FS "classpath" entry, a file, an archive
// member, a URI or a literal string) but nothing is read until the caller asks
// for a Stream or the full text. Every read opens the origin afresh, so the
// same resource can be used concurrently and always observes current content.
//
// Failures are *Error values. errors.Is distinguishes an origin that could not
// be located (ErrNotFound) from one that failed while being read
// (ErrIOFailure, with ErrMalformedInput as a special case), and every message
// carries the resource's display name.
//
// Typical usage:
//
//	//go:embed data
//	var data embed.FS
//
//	res := textres.NewClasspathResource(textres.NewFSResolver("app", data, ""), "/data/sample.txt", textres.UTF8)
//	text, err := res.Text(ctx)
//
// Services such as the filesystem or the HTTP client are injected when a
// Factory is built; see NewFactory and NewFactoryFrom. Descriptors and the
// codec subpackage persist resources, and the manifest subpackage declares
// them in YAML or TOML.
package textres
