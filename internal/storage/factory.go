// Package storage selects the cache backend for NAV histories and advice.
package storage

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/interfaces"
	"github.com/bobmcallan/nivesh/internal/storage/badger"
	"github.com/bobmcallan/nivesh/internal/storage/memory"
	"github.com/bobmcallan/nivesh/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendBadger    = "badger"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// NewStorageManager creates a storage manager for the configured backend.
// Supported backends: "badger" (default), "surrealdb", "memory".
func NewStorageManager(logger *common.Logger, config common.StorageConfig) (interfaces.StorageManager, error) {
	backend := strings.ToLower(strings.TrimSpace(config.Backend))
	if backend == "" {
		backend = BackendBadger
	}

	switch backend {
	case BackendBadger:
		return badger.NewManager(logger, config.Path)

	case BackendSurrealDB:
		return surrealdb.NewManager(logger, config)

	case BackendMemory:
		logger.Info().Msg("In-memory storage: caches are lost on restart")
		return memory.NewManager(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: badger, surrealdb, memory)", backend)
	}
}
