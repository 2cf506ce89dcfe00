// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/store"
)

// MovieFetcher looks up movie metadata by title
type MovieFetcher interface {
	// Fetch returns the canonical movie for title, or an error matching
	// metadata.ErrNotFound when no provider knows it
	Fetch(ctx context.Context, title string) (codec.Movie, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves st until ctx is canceled
	StartServer(ctx context.Context, st store.Storage, config ServerConfig, opts ...Option) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
