// Package prefs is a bbolt-backed key/value preference store. The engine
// uses it for the per-conversation do-not-disturb flag only.
package prefs

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("prefs")

// Store wraps a bbolt database holding string preferences.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the preference database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key; ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(key))
		if raw != nil {
			value = string(raw)
			ok = true
		}
		return nil
	})
	return value, ok, err
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
}

func dndKey(conversationID string) string {
	return "dnd:" + conversationID
}

// DoNotDisturb reports the do-not-disturb flag for a conversation; absent
// keys read as false.
func (s *Store) DoNotDisturb(conversationID string) (bool, error) {
	value, ok, err := s.Get(dndKey(conversationID))
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// SetDoNotDisturb stores the do-not-disturb flag for a conversation.
func (s *Store) SetDoNotDisturb(conversationID string, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.Set(dndKey(conversationID), value)
}
