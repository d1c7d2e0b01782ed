package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	sessionBucket = "session"
	tokenKey      = "token"
)

var errBucketMissing = errors.New("session bucket missing")

// BoltStore is a Store persisted in a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Token implements Store.
func (s *BoltStore) Token(_ context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return errBucketMissing
		}
		// copy: the value is only valid inside the transaction
		token = string(bucket.Get([]byte(tokenKey)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read session token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SetToken implements Store.
func (s *BoltStore) SetToken(_ context.Context, token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(tokenKey), []byte(token))
	})
}

// Clear implements Store.
func (s *BoltStore) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Delete([]byte(tokenKey))
	})
}

// Close closes the underlying file.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
