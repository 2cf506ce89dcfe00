package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = []codec.Codec{codec.JSON, codec.CSV}

func newTestStore(t *testing.T, c codec.Codec, opts ...Option) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies."+c.Name())
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	return NewFileStore(path, c, opts...), path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func stubRename(t *testing.T, fn func(oldpath, newpath string) error) {
	t.Helper()
	orig := renameFunc
	renameFunc = fn
	t.Cleanup(func() { renameFunc = orig })
}

func TestFileStore_LazySeed(t *testing.T) {
	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s, path := newTestStore(t, c)
			ctx := context.Background()
			assert.NoFileExists(t, path)

			catalog, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Titanic", "The Godfather", "The Shawshank Redemption"}, catalog.Titles())
			assert.FileExists(t, path)

			titanic, ok := catalog.Get("Titanic")
			require.True(t, ok)
			assert.Equal(t, 1999, titanic.Year)
			assert.Equal(t, 9.0, titanic.Rating)
			assert.NotEmpty(t, titanic.Poster)

			before := readFile(t, path)
			again, err := s.List(ctx)
			require.NoError(t, err)
			assert.True(t, catalog.Equal(again))
			assert.Equal(t, before, readFile(t, path), "a second read must not rewrite the file")
			assert.Nil(t, s.LastRecovery())
		})
	}
}

func TestFileStore_EndToEnd(t *testing.T) {
	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s, _ := newTestStore(t, c)
			ctx := context.Background()

			catalog, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, catalog.Len())

			up := codec.Movie{Title: "Up", Year: 2009, Rating: 8.3, Poster: "https://example.com/up.jpg"}
			require.NoError(t, s.Add(ctx, up))

			catalog, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, catalog.Len())
			got, ok := catalog.Get("Up")
			require.True(t, ok)
			assert.Equal(t, up, got)

			require.NoError(t, s.Update(ctx, "Up", 9.0))
			catalog, err = s.List(ctx)
			require.NoError(t, err)
			got, _ = catalog.Get("Up")
			assert.Equal(t, 9.0, got.Rating)
			assert.Equal(t, up.Poster, got.Poster)

			require.NoError(t, s.Delete(ctx, "Titanic"))
			catalog, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, catalog.Len())
			assert.False(t, catalog.Has("Titanic"))
			assert.Equal(t, []string{"The Godfather", "The Shawshank Redemption", "Up"}, catalog.Titles())
		})
	}
}

func TestFileStore_PreconditionFailuresDoNotWrite(t *testing.T) {
	testCases := []struct {
		name string
		op   func(s *FileStore) error
		want error
	}{
		{
			name: "duplicate add",
			op: func(s *FileStore) error {
				return s.Add(context.Background(), codec.Movie{Title: "Titanic", Year: 1997, Rating: 7.9})
			},
			want: ErrDuplicateKey,
		},
		{
			name: "delete missing",
			op:   func(s *FileStore) error { return s.Delete(context.Background(), "Missing") },
			want: ErrNotFound,
		},
		{
			name: "update missing",
			op:   func(s *FileStore) error { return s.Update(context.Background(), "Missing", 5) },
			want: ErrNotFound,
		},
		{
			name: "titles are case sensitive",
			op:   func(s *FileStore) error { return s.Delete(context.Background(), "titanic") },
			want: ErrNotFound,
		},
	}

	for _, c := range backends {
		for _, tc := range testCases {
			t.Run(c.Name()+"/"+tc.name, func(t *testing.T) {
				s, path := newTestStore(t, c)
				_, err := s.List(context.Background())
				require.NoError(t, err)

				before := readFile(t, path)
				info, err := os.Stat(path)
				require.NoError(t, err)

				err = tc.op(s)
				assert.True(t, errors.Is(err, tc.want), "got %v", err)

				assert.Equal(t, before, readFile(t, path))
				after, err := os.Stat(path)
				require.NoError(t, err)
				assert.Equal(t, info.ModTime(), after.ModTime())
			})
		}
	}
}

func TestFileStore_AddRejectsInvalidMovie(t *testing.T) {
	testCases := []struct {
		name  string
		movie codec.Movie
	}{
		{"empty title", codec.Movie{Title: "", Year: 2000, Rating: 5}},
		{"blank title", codec.Movie{Title: "   ", Year: 2000, Rating: 5}},
		{"multi-line title", codec.Movie{Title: "Up\nDown", Year: 2000, Rating: 5}},
		{"title not utf-8", codec.Movie{Title: "Am\xe9lie", Year: 2001, Rating: 8.3}},
		{"poster not utf-8", codec.Movie{Title: "Amelie", Year: 2001, Rating: 8.3, Poster: "https://example.com/\xff.jpg"}},
	}

	for _, c := range backends {
		for _, tc := range testCases {
			t.Run(c.Name()+"/"+tc.name, func(t *testing.T) {
				s, path := newTestStore(t, c)
				err := s.Add(context.Background(), tc.movie)
				assert.True(t, errors.Is(err, ErrInvalidMovie), "got %v", err)
				assert.NoFileExists(t, path)
			})
		}
	}
}

func TestFileStore_InvalidUTF8LeavesFileUnchanged(t *testing.T) {
	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s, path := newTestStore(t, c)
			ctx := context.Background()
			_, err := s.List(ctx)
			require.NoError(t, err)
			before := readFile(t, path)

			err = s.Add(ctx, codec.Movie{Title: "Am\xe9lie", Year: 2001, Rating: 8.3})
			assert.ErrorIs(t, err, ErrInvalidMovie)
			assert.NotErrorIs(t, err, ErrIntegrity)
			assert.Equal(t, before, readFile(t, path))

			catalog, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, catalog.Len())
		})
	}
}

func TestFileStore_RecoversCorruptFile(t *testing.T) {
	testCases := []struct {
		name    string
		backend codec.Codec
		content string
	}{
		{"json garbage", codec.JSON, "{{{"},
		{"json zero bytes", codec.JSON, ""},
		{"json bad rating", codec.JSON, `{"Up": {"rating": "great", "year": 2009}}`},
		{"csv bad rating", codec.CSV, "title,rating,year\nUp,great,2009\n"},
		{"csv zero bytes", codec.CSV, ""},
		{"csv missing column", codec.CSV, "title,rating\nUp,8.3\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var handled []*RecoveryResult
			path := filepath.Join(t.TempDir(), "movies."+tc.backend.Name())
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			logger, hook := test.NewNullLogger()
			s := NewFileStore(path, tc.backend,
				WithLogger(logger),
				WithRecoveryHandler(func(r *RecoveryResult) { handled = append(handled, r) }),
			)

			catalog, err := s.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, catalog.Len(), "recovery yields an empty catalog, not the seed")
			assert.Equal(t, tc.backend.Empty(), readFile(t, path))

			res := s.LastRecovery()
			require.NotNil(t, res)
			assert.Equal(t, path, res.Path)
			assert.Equal(t, tc.backend.Name(), res.Format)
			assert.Equal(t, len(tc.content), res.BytesBefore)
			assert.True(t, res.Reset)
			assert.NoError(t, res.ResetErr)
			assert.True(t, codec.IsDecodeError(res.Cause))
			assert.False(t, res.At.IsZero())
			require.Len(t, handled, 1)
			assert.Same(t, res, handled[0])

			var warned bool
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.WarnLevel {
					warned = true
				}
			}
			assert.True(t, warned, "recovery must be logged")

			// the reset file is valid, so no further recovery happens
			catalog, err = s.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, catalog.Len())
			assert.Len(t, handled, 1)
		})
	}
}

type fakeQuarantine struct {
	archived map[string][]byte
	err      error
}

func (q *fakeQuarantine) Archive(path string, data []byte) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if q.archived == nil {
		q.archived = make(map[string][]byte)
	}
	id := "q-1"
	q.archived[id] = append([]byte(nil), data...)
	return id, nil
}

type panickingQuarantine struct{}

func (panickingQuarantine) Archive(string, []byte) (string, error) { panic("boom") }

func TestFileStore_RecoveryQuarantine(t *testing.T) {
	t.Run("archives corrupt bytes", func(t *testing.T) {
		q := &fakeQuarantine{}
		s, path := newTestStore(t, codec.JSON, WithQuarantine(q))
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		_, err := s.List(context.Background())
		require.NoError(t, err)

		res := s.LastRecovery()
		require.NotNil(t, res)
		assert.Equal(t, "q-1", res.QuarantineID)
		assert.Equal(t, []byte("not json"), q.archived["q-1"])
	})

	t.Run("quarantine failure still resets", func(t *testing.T) {
		q := &fakeQuarantine{err: errors.New("disk full")}
		s, path := newTestStore(t, codec.CSV, WithQuarantine(q))
		require.NoError(t, os.WriteFile(path, []byte("title\n"), 0o644))

		catalog, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, catalog.Len())

		res := s.LastRecovery()
		require.NotNil(t, res)
		assert.Empty(t, res.QuarantineID)
		assert.True(t, res.Reset)
		assert.Equal(t, codec.CSV.Empty(), readFile(t, path))
	})

	t.Run("quarantine panic is contained", func(t *testing.T) {
		s, path := newTestStore(t, codec.JSON, WithQuarantine(panickingQuarantine{}))
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

		assert.NotPanics(t, func() {
			_, err := s.List(context.Background())
			assert.NoError(t, err)
		})
		assert.True(t, s.LastRecovery().Reset)
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		s, path := newTestStore(t, codec.JSON, WithRecoveryHandler(func(*RecoveryResult) { panic("boom") }))
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

		assert.NotPanics(t, func() {
			_, err := s.List(context.Background())
			assert.NoError(t, err)
		})
	})
}

func TestFileStore_RecoveryResetFailure(t *testing.T) {
	s, path := newTestStore(t, codec.JSON)
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))
	stubRename(t, func(string, string) error { return os.ErrPermission })

	catalog, err := s.List(context.Background())
	require.NoError(t, err, "recovery never surfaces an error")
	assert.Equal(t, 0, catalog.Len())

	res := s.LastRecovery()
	require.NotNil(t, res)
	assert.False(t, res.Reset)
	assert.True(t, errors.Is(res.ResetErr, ErrIO))
	assert.True(t, errors.Is(res.ResetErr, os.ErrPermission))
	assert.Equal(t, []byte("{{{"), readFile(t, path))
}

func TestFileStore_AddAfterRecovery(t *testing.T) {
	s, path := newTestStore(t, codec.CSV)
	require.NoError(t, os.WriteFile(path, []byte("garbage,\"\n"), 0o644))

	require.NoError(t, s.Add(context.Background(), codec.Movie{Title: "Up", Year: 2009, Rating: 8.3}))

	catalog, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Up"}, catalog.Titles())
	assert.NotNil(t, s.LastRecovery())
}

func TestFileStore_UnusablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s := NewFileStore(filepath.Join(blocker, "movies."+c.Name()), c, WithLogger(logrus.New()))

			_, err := s.List(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIO))

			var ioErr *IOError
			require.True(t, errors.As(err, &ioErr))
			assert.Equal(t, "read", ioErr.Op)

			err = s.Add(context.Background(), codec.Movie{Title: "Up", Year: 2009, Rating: 8.3})
			assert.True(t, errors.Is(err, ErrIO))
		})
	}
}

func TestFileStore_FailedWriteLeavesFileUnchanged(t *testing.T) {
	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s, path := newTestStore(t, c)
			_, err := s.List(context.Background())
			require.NoError(t, err)
			before := readFile(t, path)

			stubRename(t, func(string, string) error { return os.ErrPermission })
			err = s.Add(context.Background(), codec.Movie{Title: "Up", Year: 2009, Rating: 8.3})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIO))

			var ioErr *IOError
			require.True(t, errors.As(err, &ioErr))
			assert.Equal(t, "write", ioErr.Op)
			assert.Equal(t, path, ioErr.Path)

			assert.Equal(t, before, readFile(t, path))
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary files must be cleaned up")
		})
	}
}

func TestFileStore_WriteKeepsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}

	for _, c := range backends {
		t.Run(c.Name(), func(t *testing.T) {
			s, path := newTestStore(t, c)
			ctx := context.Background()
			_, err := s.List(ctx)
			require.NoError(t, err)

			fi, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm(), "new files use the default mode")

			require.NoError(t, os.Chmod(path, 0o600))
			require.NoError(t, s.Add(ctx, codec.Movie{Title: "Up", Year: 2009, Rating: 8.3}))
			require.NoError(t, s.Update(ctx, "Up", 9))

			fi, err = os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
		})
	}
}

func TestFileStore_IntegrityError(t *testing.T) {
	s, _ := newTestStore(t, codec.JSON)
	_, err := s.List(context.Background())
	require.NoError(t, err)

	// the rename reports success but the new content never lands
	stubRename(t, func(oldpath, _ string) error { return os.Remove(oldpath) })

	err = s.Update(context.Background(), "Titanic", 7.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntegrity))

	var integrityErr *IntegrityError
	require.True(t, errors.As(err, &integrityErr))
	assert.Equal(t, "update", integrityErr.Op)
	assert.Equal(t, "Titanic", integrityErr.Title)

	catalog, err := s.List(context.Background())
	require.NoError(t, err)
	titanic, _ := catalog.Get("Titanic")
	assert.Equal(t, 9.0, titanic.Rating)
}

func TestFileStore_CanceledContext(t *testing.T) {
	s, path := newTestStore(t, codec.JSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	err = s.Add(ctx, codec.Movie{Title: "Up", Year: 2009, Rating: 8.3})
	assert.ErrorIs(t, err, context.Canceled)
	err = s.Update(ctx, "Titanic", 5)
	assert.ErrorIs(t, err, context.Canceled)
	err = s.Delete(ctx, "Titanic")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	_, err = s.List(expired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrIO)
}

func TestFileStore_CustomSeed(t *testing.T) {
	s, _ := newTestStore(t, codec.CSV, WithSeed())
	catalog, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		backend string
		wantErr bool
	}{
		{"json by extension", Config{Path: "movies.json"}, "json", false},
		{"csv by extension", Config{Path: "movies.CSV"}, "csv", false},
		{"explicit backend wins", Config{Backend: "csv", Path: "movies.db"}, "csv", false},
		{"no extension defaults to json", Config{Path: "movies"}, "json", false},
		{"unknown backend", Config{Backend: "xml", Path: "movies.xml"}, "", true},
		{"missing path", Config{Backend: "json"}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.backend, s.Backend())
			assert.Equal(t, tc.cfg.Path, s.Path())
		})
	}
}
