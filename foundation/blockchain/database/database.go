// Package database handles all the lower level support for maintaining the
// ledger: blocks, the proof of work, chain validation, and the storage
// contract used to keep the chain on disk.
package database

import (
	"errors"
	"fmt"
)

// ErrEndOfChain is returned by an iterator that has no more blocks.
var ErrEndOfChain = errors.New("end of chain")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. The
// genesis block is fixed and never handed to storage.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// ReadChain loads every block from storage, places them behind the genesis
// block and validates the result.
func ReadChain(storage Storage, evHandler func(v string, args ...any)) (Chain, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	chain := NewChain()

	iter := storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := block.ValidateNext(chain.Tip()); err != nil {
			return nil, fmt.Errorf("validate stored block %d: %w", block.Index, err)
		}

		evHandler("database: ReadChain: blk[%d]: hash[%s]: records[%d]", block.Index, block.Hash, len(block.Records))
		chain = append(chain, block)
	}

	return chain, nil
}

// WriteChain replaces everything in storage with the blocks of the chain.
func WriteChain(storage Storage, chain Chain) error {
	if err := storage.Reset(); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}

	for _, block := range chain {
		if block.Index == 0 {
			continue
		}

		if err := storage.Write(block); err != nil {
			return fmt.Errorf("write block %d: %w", block.Index, err)
		}
	}

	return nil
}
