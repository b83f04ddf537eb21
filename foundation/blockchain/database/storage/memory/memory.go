// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified block and stores it in memory. Blocks must be
// written in order starting with block 1.
func (m *Memory) Write(block database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := uint64(len(m.blocks))
	if l+1 != block.Index {
		return fmt.Errorf("block is out of order, got %d, exp %d", block.Index, l+1)
	}

	m.blocks = append(m.blocks, block)

	return nil
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by index.
func (m *Memory) GetBlock(num uint64) (database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := uint64(len(m.blocks))
	if num == 0 || num > l {
		return database.Block{}, errors.New("block does not exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the blockchain in memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// Len returns the number of blocks stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blocks)
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.Block, error) {
	if mi.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	mi.current++
	block, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
		return database.Block{}, database.ErrEndOfChain
	}

	return block, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
