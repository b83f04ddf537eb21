package state

import (
	"fmt"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// QueryChain returns a copy of the full chain.
func (s *State) QueryChain() database.Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Copy()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Length()
}

// QueryBlock returns the block at the specified index.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index >= uint64(len(s.chain)) {
		return database.Block{}, fmt.Errorf("block %d not found", index)
	}

	return s.chain[index], nil
}

// QueryKey reports whether the uniqueness key is held by a record on the
// chain or by a pending record.
func (s *State) QueryKey(key string) (onChain bool, pending bool) {
	s.mu.RLock()
	_, onChain = s.usedKeys[key]
	s.mu.RUnlock()

	return onChain, s.mempool.HasKey(key)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}
