package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/codec"
)

// Storage is the facade shared by every catalog backend.
//
// Failures match ErrNotFound, ErrDuplicateKey, ErrInvalidMovie, ErrIntegrity or
// ErrIO with errors.Is. The one exception is a done ctx: its error is returned
// unwrapped (context.Canceled or context.DeadlineExceeded) before any file is read.
type Storage interface {
	// List returns the full catalog, seeding an absent file and recovering a corrupt one
	List(ctx context.Context) (*codec.Catalog, error)

	// Add inserts a new movie. Titles are unique.
	Add(ctx context.Context, m codec.Movie) error

	// Delete removes the movie with the given title
	Delete(ctx context.Context, title string) error

	// Update replaces the rating of an existing movie
	Update(ctx context.Context, title string, rating float64) error
}

// Config selects and locates a backend
type Config struct {
	Backend string // "json", "csv" or empty to pick from the file extension
	Path    string
}

// Option customizes a FileStore
type Option func(*FileStore)

// WithLogger sets the logger used for seed and recovery events
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed replaces the movies written to an absent file
func WithSeed(movies ...codec.Movie) Option {
	return func(s *FileStore) {
		s.seed = append([]codec.Movie(nil), movies...)
	}
}

// WithQuarantine archives corrupt file contents before they are reset
func WithQuarantine(q Quarantine) Option {
	return func(s *FileStore) {
		s.quarantine = q
	}
}

// WithRecoveryHandler registers a callback invoked after every recovery
func WithRecoveryHandler(h RecoveryHandler) Option {
	return func(s *FileStore) {
		s.onRecover = h
	}
}

func withClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

// Errors
var (
	ErrNotFound     = &StoreError{"movie not found"}
	ErrDuplicateKey = &StoreError{"movie already exists"}
	ErrInvalidMovie = &StoreError{"invalid movie"}
	ErrIntegrity    = &StoreError{"post-write verification failed"}
	ErrIO           = &StoreError{"storage i/o failure"}
)

// StoreError represents a catalog store error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// IntegrityError reports a write whose effect was not visible on re-read
type IntegrityError struct {
	Op    string
	Title string
	Err   error // read or decode failure during verification, if any
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Title, ErrIntegrity.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Is matches ErrIntegrity
func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// IOError wraps a filesystem failure. The file on disk is unchanged when it is returned.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is matches ErrIO
func (e *IOError) Is(target error) bool { return target == ErrIO }
