package store

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libsynapse-go/errors"
)

// DBFile is the database file name inside the data directory.
const DBFile = "synapse.db"

// BoltStore keeps engine state in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, errors.Wrap(err, "store: create directory")
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "store: open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "boltstore: create bucket %q", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "store: create buckets")
	}

	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Load reads every bucket in one read transaction.
func (s *BoltStore) Load() (*Snapshot, error) {
	var snap *Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		snap, err = loadSnapshot(boltReader{tx})
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Commit writes the batch in one read-write transaction.
func (s *BoltStore) Commit(b *Batch) error {
	if b == nil || b.Empty() {
		return nil
	}
	puts, err := b.encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, p := range puts {
			if err := tx.Bucket(p.bucket).Put(p.key, p.value); err != nil {
				return errors.Wrapf(err, "boltstore: put %s/%x", p.bucket, p.key)
			}
		}
		return nil
	})
}

type boltReader struct{ tx *bbolt.Tx }

func (r boltReader) forEach(bucket []byte, fn func(k, v []byte) error) error {
	return r.tx.Bucket(bucket).ForEach(fn)
}

func (r boltReader) forEachPrefix(bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := r.tx.Bucket(bucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (r boltReader) get(bucket, key []byte) []byte {
	return r.tx.Bucket(bucket).Get(key)
}
