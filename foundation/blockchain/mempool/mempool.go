// Package mempool maintains the pool of pending records for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// ErrDuplicateKey is returned when a record's uniqueness key is already
// pending or already recorded on the chain.
var ErrDuplicateKey = errors.New("duplicate key")

// entry is a record held in the pool with its derived identity.
type entry struct {
	id     string
	key    string
	record database.Record
}

// Mempool represents an ordered cache of records waiting to be mined. Records
// come out in the order they were added. A record carrying a uniqueness key
// is held at most once.
type Mempool struct {
	mu       sync.RWMutex
	keyField string
	pool     []entry
	keys     map[string]struct{}
}

// New constructs a new mempool where the uniqueness key of a record is the
// value of the specified field. An empty field disables key checks.
func New(keyField string) *Mempool {
	return &Mempool{
		keyField: keyField,
		keys:     make(map[string]struct{}),
	}
}

// KeyField returns the record field holding the uniqueness key.
func (mp *Mempool) KeyField() string {
	return mp.keyField
}

// Count returns the current number of records in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// HasKey reports whether a pending record holds the specified key.
func (mp *Mempool) HasKey(key string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.keys[key]
	return exists
}

// Add appends a record to the pool and returns the number of records now
// pending. The record is rejected if its key is pending or is in the
// used set provided by the caller.
func (mp *Mempool) Add(rec database.Record, used map[string]struct{}) (int, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	key, hasKey := rec.Key(mp.keyField)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if hasKey {
		if _, exists := used[key]; exists {
			return 0, fmt.Errorf("%w: %q is already on the chain", ErrDuplicateKey, key)
		}
		if _, exists := mp.keys[key]; exists {
			return 0, fmt.Errorf("%w: %q is already pending", ErrDuplicateKey, key)
		}
		mp.keys[key] = struct{}{}
	}

	mp.pool = append(mp.pool, entry{id: rec.ID(), key: key, record: rec})

	return len(mp.pool), nil
}

// Remove deletes one pending occurrence of each specified record. This is
// used once a block holding the records has been committed.
func (mp *Mempool) Remove(records []database.Record) {
	ids := make(map[string]int)
	for _, rec := range records {
		ids[rec.ID()]++
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	var keep []entry
	for _, e := range mp.pool {
		if ids[e.id] > 0 {
			ids[e.id]--
			mp.dropKey(e)
			continue
		}
		keep = append(keep, e)
	}

	mp.pool = keep
}

// Filter keeps only the records accepted by the function and returns the
// number of records that were dropped.
func (mp *Mempool) Filter(keep func(rec database.Record) bool) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var kept []entry
	for _, e := range mp.pool {
		if keep(e.record) {
			kept = append(kept, e)
			continue
		}
		mp.dropKey(e)
	}

	dropped := len(mp.pool) - len(kept)
	mp.pool = kept

	return dropped
}

// Truncate clears all the records from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	mp.keys = make(map[string]struct{})
}

// Copy returns a copy of every pending record in pool order.
func (mp *Mempool) Copy() []database.Record {
	return mp.PickBest(-1)
}

// PickBest returns the next set of records for the next block in pool
// order. A value of -1 returns every record.
func (mp *Mempool) PickBest(howMany int) []database.Record {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	records := make([]database.Record, howMany)
	for i := 0; i < howMany; i++ {
		records[i] = mp.pool[i].record
	}

	return records
}

// dropKey releases the uniqueness key of the entry. The caller must hold
// the write lock.
func (mp *Mempool) dropKey(e entry) {
	if e.key != "" {
		delete(mp.keys, e.key)
	}
}
