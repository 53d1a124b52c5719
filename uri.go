package textres

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
)

// URISource fetches content over HTTP(S) on every Open.
type URISource struct {
	client  *http.Client
	uri     *url.URL
	charset Charset
}

// NewURISource captures the client, URI and charset. A zero charset defers to
// the charset parameter of the response Content-Type, then UTF-8. A nil
// client means http.DefaultClient.
func NewURISource(client *http.Client, uri *url.URL, cs Charset) *URISource {
	if client == nil {
		client = http.DefaultClient
	}
	u := *uri
	return &URISource{client: client, uri: &u, charset: cs}
}

func (s *URISource) Kind() SourceKind { return SourceURI }

// URI returns a copy of the source URI.
func (s *URISource) URI() *url.URL {
	u := *s.uri
	return &u
}

// Charset returns the configured charset; the zero value means "from response".
func (s *URISource) Charset() Charset { return s.charset }

func (s *URISource) Open(ctx context.Context) (*Stream, error) {
	origin := s.uri.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, nil)
	if err != nil {
		return nil, invalidOrigin(origin, "invalid uri "+origin)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ioFailure(origin, "could not fetch "+origin, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_ = resp.Body.Close()
		return nil, notFound(origin, s.uri.Host, "could not find "+origin+" ("+resp.Status+")", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, ioFailure(origin, fmt.Sprintf("could not fetch %s: unexpected status %s", origin, resp.Status), nil)
	}
	cs := s.charset
	if cs.IsZero() {
		cs = responseCharset(resp.Header.Get("Content-Type"))
	}
	return newStream(resp.Body, cs, origin), nil
}

func responseCharset(contentType string) Charset {
	if contentType == "" {
		return UTF8
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["charset"] == "" {
		return UTF8
	}
	cs, err := LookupCharset(params["charset"])
	if err != nil {
		return UTF8
	}
	return cs
}
