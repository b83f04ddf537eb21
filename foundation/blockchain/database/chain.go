package database

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// Chain represents an ordered sequence of blocks starting with the genesis
// block. A chain is never itself a block.
type Chain []Block

// NewChain constructs a chain holding only the genesis block.
func NewChain() Chain {
	return Chain{GenesisBlock()}
}

// Validate walks the chain verifying link integrity and proof validity. It
// stops at the first violation and never changes the chain.
func (c Chain) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrInvalidLink)
	}

	if !c[0].IsGenesis() {
		return fmt.Errorf("%w: first block is not the genesis block", ErrInvalidLink)
	}

	for i := 1; i < len(c); i++ {
		if err := c[i].ValidateNext(c[i-1]); err != nil {
			return err
		}
	}

	return nil
}

// IsValid is a convenience wrapper around Validate.
func (c Chain) IsValid() bool {
	return c.Validate() == nil
}

// Length returns the number of blocks in the chain.
func (c Chain) Length() int {
	return len(c)
}

// Tip returns the latest block of the chain.
func (c Chain) Tip() Block {
	if len(c) == 0 {
		return Block{}
	}
	return c[len(c)-1]
}

// Copy returns a copy of the chain. Blocks are values and records are never
// changed once in a block, so the records are shared.
func (c Chain) Copy() Chain {
	cpy := make(Chain, len(c))
	copy(cpy, c)
	return cpy
}

// MinDifficulty returns the lowest difficulty of any mined block. A chain
// with only the genesis block reports the max difficulty.
func (c Chain) MinDifficulty() uint {
	lowest := uint(MaxDifficulty)
	for _, b := range c {
		if b.Index == 0 {
			continue
		}
		if b.Difficulty < lowest {
			lowest = b.Difficulty
		}
	}
	return lowest
}

// UsedKeys replays the chain and returns the set of uniqueness keys held
// in the specified record field.
func (c Chain) UsedKeys(field string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, b := range c {
		for _, rec := range b.Records {
			if key, ok := rec.Key(field); ok {
				keys[key] = struct{}{}
			}
		}
	}
	return keys
}

// RecordIDs returns the set of ids for every record in the chain.
func (c Chain) RecordIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, b := range c {
		for _, rec := range b.Records {
			ids[rec.ID()] = struct{}{}
		}
	}
	return ids
}

// =============================================================================

// Serialize produces the canonical encoding of the chain. This is the
// format used on the wire between nodes and by export tooling.
func Serialize(chain Chain) ([]byte, error) {
	return signature.Encode(chain)
}

// Deserialize converts the encoding produced by Serialize back into a
// chain. Numbers inside records are kept as their literal text so the
// block hashes are reproduced exactly.
func Deserialize(data []byte) (Chain, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var chain Chain
	if err := dec.Decode(&chain); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}

	for i := range chain {
		chain[i].Records = normalize(chain[i].Records)
	}

	return chain, nil
}
