// Package storage keeps copies of catalog files that were found corrupt and reset.
// Entries are stored in a pebble database and keyed by KSUID, so listing them
// yields archive order.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

var (
	dataPrefix = []byte("data/")
	metaPrefix = []byte("meta/")
)

// ErrNotFound is returned for an unknown quarantine ID
var ErrNotFound = errors.New("quarantine entry not found")

// Entry describes one archived file
type Entry struct {
	ID         string    `json:"id" yaml:"id"`
	Path       string    `json:"path" yaml:"path"`
	Size       int       `json:"size" yaml:"size"`
	ArchivedAt time.Time `json:"archived_at" yaml:"archived_at"`
}

// Quarantine is a pebble-backed archive of corrupt catalog contents
type Quarantine struct {
	db  *pebble.DB
	now func() time.Time
}

// Open opens or creates the archive in dir
func Open(dir string) (*Quarantine, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open quarantine at %s: %w", dir, err)
	}
	return &Quarantine{db: db, now: time.Now}, nil
}

// Archive stores data read from path and returns the new entry's ID
func (q *Quarantine) Archive(path string, data []byte) (string, error) {
	id := ksuid.New()
	entry := Entry{
		ID:         id.String(),
		Path:       path,
		Size:       len(data),
		ArchivedAt: q.now().UTC(),
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	b := q.db.NewBatch()
	defer b.Close()
	if err := b.Set(key(dataPrefix, id), data, nil); err != nil {
		return "", err
	}
	if err := b.Set(key(metaPrefix, id), meta, nil); err != nil {
		return "", err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return "", fmt.Errorf("failed to commit quarantine entry: %w", err)
	}
	return entry.ID, nil
}

// Get returns the entry and the archived bytes for id
func (q *Quarantine) Get(id string) (Entry, []byte, error) {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	var entry Entry
	meta, err := q.get(key(metaPrefix, kid))
	if err != nil {
		return Entry{}, nil, q.notFound(id, err)
	}
	if err := json.Unmarshal(meta, &entry); err != nil {
		return Entry{}, nil, fmt.Errorf("failed to decode quarantine entry %s: %w", id, err)
	}
	data, err := q.get(key(dataPrefix, kid))
	if err != nil {
		return Entry{}, nil, q.notFound(id, err)
	}
	return entry, data, nil
}

// List returns all entries in ID order, which follows archive time to the second
func (q *Quarantine) List() ([]Entry, error) {
	iter, err := q.db.NewIter(&pebble.IterOptions{
		LowerBound: metaPrefix,
		UpperBound: upperBound(metaPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	entries := []Entry{}
	for iter.First(); iter.Valid(); iter.Next() {
		var entry Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode quarantine entry %x: %w", iter.Key(), err)
		}
		entries = append(entries, entry)
	}
	return entries, iter.Error()
}

// Delete removes an entry
func (q *Quarantine) Delete(id string) error {
	kid, err := ksuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if _, err := q.get(key(metaPrefix, kid)); err != nil {
		return q.notFound(id, err)
	}

	b := q.db.NewBatch()
	defer b.Close()
	if err := b.Delete(key(dataPrefix, kid), nil); err != nil {
		return err
	}
	if err := b.Delete(key(metaPrefix, kid), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// Close releases the database
func (q *Quarantine) Close() error {
	return q.db.Close()
}

func (q *Quarantine) get(k []byte) ([]byte, error) {
	value, closer, err := q.db.Get(k)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer is closed
	return append([]byte(nil), value...), nil
}

func (q *Quarantine) notFound(id string, err error) error {
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func key(prefix []byte, id ksuid.KSUID) []byte {
	return append(append([]byte(nil), prefix...), id.Bytes()...)
}

func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}
