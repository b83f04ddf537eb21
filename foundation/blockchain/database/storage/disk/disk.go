// Package disk implements the ability to read and write blocks to disk
// with each block stored in its own file.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	mu     sync.RWMutex
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified block and stores it on disk in a file labeled
// with the block index. The file is written under a temporary name and
// renamed so a crash never leaves a partial block behind.
func (d *Disk) Write(block database.Block) error {
	if block.Index == 0 {
		return errors.New("genesis block is not stored")
	}

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name := d.getPath(block.Index)
	tmp := name + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmp, name)
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by index.
func (d *Disk) GetBlock(num uint64) (database.Block, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// Open the block file for the specified number.
	f, err := os.OpenFile(d.getPath(num), os.O_RDONLY, 0600)
	if err != nil {
		return database.Block{}, err
	}
	defer f.Close()

	// Decode the contents of the block. Record numbers stay in their
	// literal form so the block hash can be recalculated.
	dec := json.NewDecoder(f)
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
func (d *Disk) ForEach() database.Iterator {
	return &Iterator{disk: d}
}

// Reset will clear out the blockchain on disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		if _, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64); err != nil {
			continue
		}

		if err := os.Remove(filepath.Join(d.dbPath, name)); err != nil {
			return err
		}
	}

	return nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// Iterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type Iterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *Iterator) Next() (database.Block, error) {
	if di.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	di.current++
	block, err := di.disk.GetBlock(di.current)
	if errors.Is(err, fs.ErrNotExist) {
		di.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (di *Iterator) Done() bool {
	return di.eoc
}
