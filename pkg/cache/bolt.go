package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "extractions"

// BoltStore persists entries in a bbolt file so repeated uploads survive
// process restarts.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(key string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return entry, nil
}

func (b *BoltStore) Put(key string, value []byte, ttlSeconds int64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(&Entry{
			Value:      value,
			TTLSeconds: ttlSeconds,
			CreatedAt:  time.Now(),
		})
		if err != nil {
			return fmt.Errorf("marshaling cache entry: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

func (b *BoltStore) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
