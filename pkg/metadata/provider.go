// Package metadata looks up movie details online for the add command.
//
// A Provider knows one site. The Fetcher tries providers in order and retries
// transient failures; providers themselves do not retry or cache.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ssargent/reelshelf/pkg/codec"
)

// Lookup failures
var (
	ErrNotFound      = errors.New("movie not found")
	ErrMissingAPIKey = errors.New("missing API key")
)

const maxBodySize = 4 << 20

// Provider fetches metadata for a title from one source. Fields the source does
// not know are left zero.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, title string, c *http.Client) (codec.Movie, error)
}

// HTTPStatusError reports a non-2xx response
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Temporary reports whether retrying the request may succeed
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ParseError reports a response that could not be understood
type ParseError struct {
	Provider string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %s", e.Provider, e.Reason)
}

// Registry is a read-only set of providers indexed by name
type Registry struct {
	byName map[string]Provider
}

// NewRegistry indexes providers by their lowercased name
func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider cannot be nil")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("provider name cannot be empty")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("duplicate provider %q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

// Get looks up a provider, ignoring case
func (r Registry) Get(name string) (Provider, bool) {
	if r.byName == nil {
		return nil, false
	}
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func fetchURL(ctx context.Context, c *http.Client, rawURL string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client cannot be nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &HTTPStatusError{URL: redact(rawURL), StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// redact drops the query string, which may carry an API key
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
