// Package universe holds the in-memory fund universe and publishes
// consistent snapshots of it to readers and subscribers.
package universe

import (
	"sync"
	"time"

	"github.com/bobmcallan/nivesh/internal/common"
	"github.com/bobmcallan/nivesh/internal/models"
)

// Snapshot is an immutable view of the universe at one generation.
// Readers must not modify the records it holds.
type Snapshot struct {
	Generation uint64              `json:"generation"`
	SyncedAt   time.Time           `json:"synced_at"`
	Funds      []models.MutualFund `json:"funds"`
}

// Get finds a fund by scheme code.
func (s Snapshot) Get(code string) (models.MutualFund, bool) {
	for _, f := range s.Funds {
		if f.SchemeCode == code {
			return f, true
		}
	}
	return models.MutualFund{}, false
}

// Codes lists the scheme codes in universe order.
func (s Snapshot) Codes() []string {
	codes := make([]string, len(s.Funds))
	for i, f := range s.Funds {
		codes[i] = f.SchemeCode
	}
	return codes
}

// LastSyncedLabel renders the last batch time for display.
func (s Snapshot) LastSyncedLabel() string {
	if s.SyncedAt.IsZero() {
		return "Not synced yet"
	}
	return s.SyncedAt.Format("02 Jan 2006 15:04:05")
}

// Store owns the universe. Every mutation publishes a new generation.
type Store struct {
	mu         sync.RWMutex
	funds      []models.MutualFund
	generation uint64
	syncedAt   time.Time
	subs       map[int]chan Snapshot
	nextSub    int
	logger     *common.Logger
}

// NewStore creates a store holding the seed records.
func NewStore(seed []models.MutualFund, logger *common.Logger) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Store{
		funds:  cloneAll(seed),
		subs:   make(map[int]chan Snapshot),
		logger: logger,
	}
}

func cloneAll(funds []models.MutualFund) []models.MutualFund {
	out := make([]models.MutualFund, len(funds))
	for i, f := range funds {
		out[i] = f.Clone()
	}
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: s.generation,
		SyncedAt:   s.syncedAt,
		Funds:      cloneAll(s.funds),
	}
}

// Snapshot returns a copy of the current universe.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns a copy of one fund.
func (s *Store) Get(code string) (models.MutualFund, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.funds {
		if f.SchemeCode == code {
			return f.Clone(), true
		}
	}
	return models.MutualFund{}, false
}

// Len returns the number of funds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.funds)
}

// Publish replaces the universe wholesale and records the batch time.
func (s *Store) Publish(funds []models.MutualFund, syncedAt time.Time) Snapshot {
	return s.Update(func([]models.MutualFund) []models.MutualFund { return funds }, syncedAt)
}

// Update applies fn to a copy of the current records and publishes its
// result atomically. A zero syncedAt keeps the previous batch time.
func (s *Store) Update(fn func(current []models.MutualFund) []models.MutualFund, syncedAt time.Time) Snapshot {
	s.mu.Lock()
	next := fn(cloneAll(s.funds))
	s.funds = cloneAll(next)
	s.generation++
	if !syncedAt.IsZero() {
		s.syncedAt = syncedAt
	}
	snap := s.snapshotLocked()
	// non-blocking, so held under the lock to keep generations ordered
	for _, ch := range s.subs {
		deliver(ch, snap)
	}
	s.mu.Unlock()

	s.logger.Debug().Uint64("generation", snap.Generation).Int("funds", len(snap.Funds)).Msg("Universe published")

	return snap
}

// Upsert replaces the record with the same scheme code, or appends it.
func (s *Store) Upsert(f models.MutualFund) Snapshot {
	return s.Update(func(current []models.MutualFund) []models.MutualFund {
		for i := range current {
			if current[i].SchemeCode == f.SchemeCode {
				current[i] = f
				return current
			}
		}
		return append(current, f)
	}, time.Time{})
}

// deliver never blocks; a slow subscriber loses its oldest pending snapshot.
func deliver(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel receiving every published snapshot and a
// cancel function that closes it.
func (s *Store) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
