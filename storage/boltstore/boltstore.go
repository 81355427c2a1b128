package boltstore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/retail-console/storage"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*BoltStore)(nil)

var bucketName = []byte("console")

// BoltStore persists values in a single bbolt bucket
type BoltStore struct {
	db *bolt.DB
}

// Open creates the file (and its folder) if needed. The file is locked while open,
// a second console process waits up to one second before failing.
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] create data folder")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] bolt.Open")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[boltstore.Open] create bucket")
	}
	return &BoltStore{db: db}, nil
}

func (bs *BoltStore) Get(key string) (string, error) {
	var value string
	found := false
	err := bs.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			found = true
			value = string(v) // copies, v is only valid inside the transaction
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "[BoltStore.Get]")
	}
	if !found {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (bs *BoltStore) Set(key, value string) error {
	err := bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	return errors.Wrap(err, "[BoltStore.Set]")
}

func (bs *BoltStore) Remove(key string) error {
	err := bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	return errors.Wrap(err, "[BoltStore.Remove]")
}

func (bs *BoltStore) Close() error {
	return bs.db.Close()
}
