// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Verify loads the chain from storage and checks every block against the
// chain rules and the genesis rules.
func Verify(w io.Writer, storage database.Storage, gen genesis.Genesis) error {
	chain, err := database.ReadChain(storage, nil)
	if err != nil {
		return err
	}

	if err := chain.Validate(); err != nil {
		return err
	}

	if chain.Length() > 1 && chain.MinDifficulty() < gen.Difficulty {
		return fmt.Errorf("%w: chain difficulty %d is below %d", database.ErrInvalidProof, chain.MinDifficulty(), gen.Difficulty)
	}

	used := make(map[string]uint64)
	for _, block := range chain {
		for _, rec := range block.Records {
			key, ok := rec.Key(gen.KeyField)
			if !ok {
				continue
			}

			if index, exists := used[key]; exists {
				return fmt.Errorf("key %q is used by blk[%d] and blk[%d]", key, index, block.Index)
			}
			used[key] = block.Index
		}
	}

	tip := chain.Tip()
	fmt.Fprintf(w, "Chain is valid: length[%d] tip[%s] keys[%d]\n", chain.Length(), tip.Hash, len(used))

	return nil
}

// Blocks lists a summary of every block in storage.
func Blocks(w io.Writer, storage database.Storage, gen genesis.Genesis) error {
	chain, err := database.ReadChain(storage, nil)
	if err != nil {
		return err
	}

	for _, block := range chain {
		var ts string
		if block.TimeStamp > 0 {
			ts = time.UnixMilli(block.TimeStamp).UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(w, "Block: %d  Hash: %s  Nonce: %d  Difficulty: %d  Records: %d  Signer: %s  Time: %s\n",
			block.Index, block.Hash, block.Nonce, block.Difficulty, len(block.Records), block.Signer(), ts)

		for _, rec := range block.Records {
			key, _ := rec.Key(gen.KeyField)
			fmt.Fprintf(w, "    Record: %s  Key: %s\n", rec.ID(), key)
		}
	}

	return nil
}

// Export writes the chain in the wire format peers exchange. The chain is
// written to the file at path, or to w when no path is given.
func Export(w io.Writer, storage database.Storage, path string) error {
	chain, err := database.ReadChain(storage, nil)
	if err != nil {
		return err
	}

	data, err := database.Serialize(chain)
	if err != nil {
		return err
	}

	if path == "" {
		_, err := w.Write(append(data, '\n'))
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	fmt.Fprintf(w, "Chain exported: length[%d] file[%s]\n", chain.Length(), path)

	return nil
}
