// Package level implements the ability to read and write blocks to a
// LevelDB database with each block stored under its index.
package level

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// blockPrefix namespaces the block keys inside the database.
var blockPrefix = []byte("blk:")

// Level represents the serialization implementation for reading and storing
// blocks in a LevelDB database. This implements the database.Storage
// interface.
type Level struct {
	db *leveldb.DB
}

// New opens, or creates, the database at the specified path.
func New(dbPath string) (*Level, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dbPath, err)
	}

	return &Level{db: db}, nil
}

// Close releases the database.
func (l *Level) Close() error {
	return l.db.Close()
}

// Write takes the specified block and stores it under its index. The write
// is synced before returning.
func (l *Level) Write(block database.Block) error {
	if block.Index == 0 {
		return errors.New("genesis block is not stored")
	}

	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(block.Index), data, &opt.WriteOptions{Sync: true})
}

// GetBlock locates and returns the contents of the specified block by index.
func (l *Level) GetBlock(num uint64) (database.Block, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		return database.Block{}, err
	}

	// Record numbers stay in their literal form so the block hash can be
	// recalculated.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var block database.Block
	if err := dec.Decode(&block); err != nil {
		return database.Block{}, fmt.Errorf("decode block %d: %w", num, err)
	}

	if block.Records == nil {
		block.Records = []database.Record{}
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (l *Level) ForEach() database.Iterator {
	return &Iterator{level: l}
}

// Reset removes every block from the database in a single batch.
func (l *Level) Reset() error {
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(bytes.Clone(iter.Key()))
	}

	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// blockKey forms the key of the specified block. The index is big endian so
// the keys sort in chain order.
func blockKey(num uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], num)
	return key
}

// =============================================================================

// Iterator represents the iteration implementation for walking through the
// blocks in the database. This implements the database Iterator interface.
type Iterator struct {
	level   *Level // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database.
func (li *Iterator) Next() (database.Block, error) {
	if li.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	li.current++
	block, err := li.level.GetBlock(li.current)
	if errors.Is(err, leveldb.ErrNotFound) {
		li.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (li *Iterator) Done() bool {
	return li.eoc
}
