package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/config"
)

// Fetcher tries its providers in order until one returns a movie
type Fetcher struct {
	providers []Provider
	client    *http.Client
	retries   int
	logger    logrus.FieldLogger
	newPolicy func() backoff.BackOff
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithRetries sets how many times a transient failure is retried per provider
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) { f.retries = n }
}

// WithLogger sets the logger for provider failures
func WithLogger(logger logrus.FieldLogger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithBackOff replaces the delay policy between retries
func WithBackOff(newPolicy func() backoff.BackOff) FetcherOption {
	return func(f *Fetcher) { f.newPolicy = newPolicy }
}

// NewFetcher creates a fetcher over providers, tried in the given order
func NewFetcher(client *http.Client, providers []Provider, opts ...FetcherOption) (*Fetcher, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	f := &Fetcher{
		providers: providers,
		client:    client,
		retries:   2,
		logger:    logrus.StandardLogger(),
		newPolicy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// New builds the provider chain from configuration. The configured provider goes
// first; the other one is a fallback when it can run.
func New(cfg config.Metadata, logger logrus.FieldLogger) (*Fetcher, error) {
	omdb := OMDb{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey}
	imdb := IMDb{BaseURL: cfg.IMDbBaseURL}
	registry, err := NewRegistry(omdb, imdb)
	if err != nil {
		return nil, err
	}

	primary, ok := registry.Get(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown metadata provider %q", cfg.Provider)
	}
	providers := []Provider{primary}
	switch primary.Name() {
	case "omdb":
		providers = append(providers, imdb)
	case "imdb":
		if cfg.APIKey != "" {
			providers = append(providers, omdb)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewFetcher(NewHTTPClient(timeout), providers, WithRetries(cfg.Retries), WithLogger(logger))
}

// Providers returns the provider names in lookup order
func (f *Fetcher) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return names
}

// Fetch looks title up. The error joins every provider's failure; errors.Is with
// ErrNotFound reports whether any provider answered that the title is unknown.
func (f *Fetcher) Fetch(ctx context.Context, title string) (codec.Movie, error) {
	var errs []error
	for _, p := range f.providers {
		m, err := f.fetchWithRetry(ctx, p, title)
		if err == nil {
			return m, nil
		}
		f.logger.WithFields(logrus.Fields{
			"provider": p.Name(),
			"title":    title,
		}).WithError(err).Warn("metadata lookup failed")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return codec.Movie{}, errors.Join(errs...)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, p Provider, title string) (codec.Movie, error) {
	var m codec.Movie
	policy := backoff.WithContext(backoff.WithMaxRetries(f.newPolicy(), uint64(max(f.retries, 0))), ctx)
	err := backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var err error
		m, err = p.Fetch(ctx, title, f.client)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	return m, err
}

// retryable is true for transport failures and 5xx/429 responses
func retryable(err error) bool {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var pe *ParseError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// NewHTTPClient returns a client with an overall timeout and a fixed User-Agent
func NewHTTPClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &http.Client{
		Transport: &uaTransport{base: base},
		Timeout:   timeout,
	}
}

const userAgent = "reelshelf/1.0 (+https://github.com/ssargent/reelshelf)"

type uaTransport struct {
	base http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(r)
}
