package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/codec"
)

var _ Storage = (*FileStore)(nil)

// FileStore keeps a catalog in a single file. Every operation re-reads the file,
// so edits made by other processes are picked up; concurrent writers are not
// coordinated and the last rename wins.
type FileStore struct {
	path       string
	codec      codec.Codec
	logger     logrus.FieldLogger
	seed       []codec.Movie
	quarantine Quarantine
	onRecover  RecoveryHandler
	now        func() time.Time

	mu   sync.Mutex
	last *RecoveryResult
}

// NewFileStore creates a store for path using the given codec
func NewFileStore(path string, c codec.Codec, opts ...Option) *FileStore {
	s := &FileStore{
		path:   path,
		codec:  c,
		logger: logrus.StandardLogger(),
		seed:   DefaultSeed(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewJSONStore creates a store backed by a JSON document
func NewJSONStore(path string, opts ...Option) *FileStore {
	return NewFileStore(path, codec.JSON, opts...)
}

// NewCSVStore creates a store backed by a CSV file
func NewCSVStore(path string, opts ...Option) *FileStore {
	return NewFileStore(path, codec.CSV, opts...)
}

// New creates a store from cfg. An empty backend is chosen from the file extension.
func New(cfg Config, opts ...Option) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	c := codec.ForPath(cfg.Path)
	if cfg.Backend != "" {
		var ok bool
		if c, ok = codec.ByName(cfg.Backend); !ok {
			return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
		}
	}
	return NewFileStore(cfg.Path, c, opts...), nil
}

// Path returns the backing file path
func (s *FileStore) Path() string { return s.path }

// Backend returns the codec name
func (s *FileStore) Backend() string { return s.codec.Name() }

// List returns the whole catalog
func (s *FileStore) List(ctx context.Context) (*codec.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

// Add inserts m. The file is not touched when the title already exists.
func (s *FileStore) Add(ctx context.Context, m codec.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateRecord(m); err != nil {
		return err
	}

	c, err := s.list(ctx)
	if err != nil {
		return err
	}
	if !c.Insert(m) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, m.Title)
	}
	if err := s.write(c); err != nil {
		return err
	}
	return s.verify("add", m.Title, func(after *codec.Catalog) bool {
		got, ok := after.Get(m.Title)
		return ok && got == m
	})
}

// Delete removes title. The file is not touched when the title is absent.
func (s *FileStore) Delete(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.list(ctx)
	if err != nil {
		return err
	}
	if !c.Remove(title) {
		return fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	if err := s.write(c); err != nil {
		return err
	}
	return s.verify("delete", title, func(after *codec.Catalog) bool {
		return !after.Has(title)
	})
}

// Update sets the rating of title. The file is not touched when the title is absent.
func (s *FileStore) Update(ctx context.Context, title string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkFinite(rating); err != nil {
		return err
	}

	c, err := s.list(ctx)
	if err != nil {
		return err
	}
	if !c.SetRating(title, rating) {
		return fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	if err := s.write(c); err != nil {
		return err
	}
	return s.verify("update", title, func(after *codec.Catalog) bool {
		got, ok := after.Get(title)
		return ok && got.Rating == rating
	})
}

func (s *FileStore) list(ctx context.Context) (*codec.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.seedFile(); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(s.path)
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	c, err := s.codec.Decode(data)
	if err != nil {
		return s.recoverCorrupt(data, err), nil
	}
	return c, nil
}

func (s *FileStore) seedFile() error {
	data, err := s.codec.Encode(codec.NewCatalog(s.seed...))
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return &IOError{Op: "create", Path: s.path, Err: err}
	}
	s.logger.WithFields(logrus.Fields{
		"path":   s.path,
		"format": s.codec.Name(),
		"movies": len(s.seed),
	}).Info("created catalog file with seed movies")
	return nil
}

func (s *FileStore) write(c *codec.Catalog) error {
	data, err := s.codec.Encode(c)
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	s.logger.WithFields(logrus.Fields{
		"path":   s.path,
		"format": s.codec.Name(),
		"movies": c.Len(),
	}).Debug("rewrote catalog file")
	return nil
}

// verify re-reads the file and checks that a mutation is observable
func (s *FileStore) verify(op, title string, check func(*codec.Catalog) bool) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &IntegrityError{Op: op, Title: title, Err: err}
	}
	after, err := s.codec.Decode(data)
	if err != nil {
		return &IntegrityError{Op: op, Title: title, Err: err}
	}
	if !check(after) {
		s.logger.WithFields(logrus.Fields{
			"path":  s.path,
			"op":    op,
			"title": title,
		}).Warn("catalog write was not visible on re-read")
		return &IntegrityError{Op: op, Title: title}
	}
	return nil
}

func checkFinite(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return fmt.Errorf("%w: rating is not a finite number", ErrInvalidMovie)
	}
	return nil
}
