// Package badger provides BadgerHold-backed caches for NAV histories and
// advice collaborator output.
package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

// Store is the embedded database shared by the cache stores. BadgerHold keys
// records by type, so histories, analyses and advice share one keyspace per
// Go type without prefixing.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens (creating if needed) the database directory at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("badger storage requires a path")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", path, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// load reads the record stored under key into a new T. Missing keys map to
// models.ErrNotFound.
func load[T any](s *Store, kind, key string) (*T, error) {
	var out T
	if err := s.db.Get(key, &out); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%s '%s': %w", kind, key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s '%s': %w", kind, key, err)
	}
	return &out, nil
}

// save upserts v under key.
func save[T any](s *Store, kind, key string, v *T) error {
	if v == nil || key == "" {
		return fmt.Errorf("%s requires a key", kind)
	}
	if err := s.db.Upsert(key, v); err != nil {
		return fmt.Errorf("failed to save %s '%s': %w", kind, key, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
