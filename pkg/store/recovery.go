package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ssargent/reelshelf/pkg/codec"
)

// RecoveryResult describes one corrupt-file recovery
type RecoveryResult struct {
	Path         string
	Format       string
	Cause        error // the decode failure that triggered recovery
	BytesBefore  int
	QuarantineID string // empty when no quarantine is configured or archiving failed
	Reset        bool
	ResetErr     error
	At           time.Time
}

// RecoveryHandler is notified after a corrupt catalog has been handled
type RecoveryHandler func(*RecoveryResult)

// Quarantine keeps a copy of corrupt catalog contents
type Quarantine interface {
	Archive(path string, data []byte) (string, error)
}

// recoverCorrupt resets a catalog file that failed to decode and returns the empty
// catalog. It does not return errors; failures end up in the result and the log.
func (s *FileStore) recoverCorrupt(data []byte, cause error) *codec.Catalog {
	res := &RecoveryResult{
		Path:        s.path,
		Format:      s.codec.Name(),
		Cause:       cause,
		BytesBefore: len(data),
		At:          s.now(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"path":   s.path,
		"format": res.Format,
		"bytes":  res.BytesBefore,
	})

	if s.quarantine != nil {
		id, err := s.archive(data)
		if err != nil {
			log.WithError(err).Warn("failed to quarantine corrupt catalog")
		} else {
			res.QuarantineID = id
			log = log.WithField("quarantine_id", id)
		}
	}

	if err := writeFileAtomic(s.path, s.codec.Empty()); err != nil {
		res.ResetErr = &IOError{Op: "reset", Path: s.path, Err: err}
		log.WithError(err).Error("failed to reset corrupt catalog")
	} else {
		res.Reset = true
	}

	log.WithError(cause).Warn("catalog file was corrupt and has been replaced with an empty catalog")

	s.last = res
	s.notify(res)
	return codec.NewCatalog()
}

func (s *FileStore) archive(data []byte) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("quarantine panicked: %v", r)
		}
	}()
	return s.quarantine.Archive(s.path, data)
}

func (s *FileStore) notify(res *RecoveryResult) {
	if s.onRecover == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("recovery handler panicked")
		}
	}()
	s.onRecover(res)
}

// LastRecovery returns the most recent recovery performed by this store, or nil
func (s *FileStore) LastRecovery() *RecoveryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
