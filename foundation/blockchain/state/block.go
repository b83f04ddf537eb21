package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/mempool"
)

// Assemble builds the candidate for the next block from the pending records
// and the current tip of the chain.
func (s *State) Assemble() (database.Candidate, error) {
	howMany := s.genesis.RecordsPerBlock
	if howMany == 0 {
		howMany = -1
	}

	records := s.mempool.PickBest(howMany)
	if len(records) == 0 {
		return database.Candidate{}, ErrNoRecords
	}

	tip := s.RetrieveLatestBlock()

	// The timestamp of a block can never be before its parent.
	ts := time.Now().UTC().UnixMilli()
	if ts < tip.TimeStamp {
		ts = tip.TimeStamp
	}

	cand := database.Candidate{
		Index:        tip.Index + 1,
		PreviousHash: tip.Hash,
		TimeStamp:    ts,
		Records:      records,
		Difficulty:   s.genesis.Difficulty,
	}

	return cand, nil
}

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. Only one mining operation can run at a time.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	ctx, cancel := context.WithCancel(ctx)
	if !s.startMining(cancel) {
		cancel()
		return database.Block{}, ErrMiningInProgress
	}
	defer s.stopMining()

	s.evHandler("state: MineNewBlock: MINING: assemble candidate")

	cand, err := s.Assemble()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: records[%d]: difficulty[%d]", cand.Index, len(cand.Records), cand.Difficulty)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	started := time.Now()
	block, err := database.POW(ctx, cand, s.evHandler)
	s.metrics.ObserveMining(err, started)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: solved: blk[%d]: nonce[%d]: took[%s]", block.Index, block.Nonce, time.Since(started))

	block, err = block.Sign(s.signer)
	if err != nil {
		return database.Block{}, fmt.Errorf("sign block: %w", err)
	}

	s.evHandler("state: MineNewBlock: MINING: commit block")

	if err := s.Commit(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// Commit validates the block against the current tip and, if that passes,
// appends the block to the chain and writes it to storage.
func (s *State) Commit(block database.Block) error {
	err := s.commit(block)
	s.metrics.ObserveCommit(err)

	if err != nil {
		s.evHandler("state: Commit: blk[%d]: REJECTED: %s", block.Index, err)
	}

	return err
}

// =============================================================================

func (s *State) commit(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.chain.Tip()
	if block.Index != tip.Index+1 || block.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: blk[%d] builds on %s, tip is blk[%d] %s", ErrStaleTip, block.Index, block.PreviousHash, tip.Index, tip.Hash)
	}

	if block.Difficulty < s.genesis.Difficulty {
		return fmt.Errorf("%w: blk[%d]: difficulty %d is below %d", database.ErrInvalidProof, block.Index, block.Difficulty, s.genesis.Difficulty)
	}

	if err := block.ValidateNext(tip); err != nil {
		return err
	}

	keys, err := blockKeys(block, s.genesis.KeyField, s.usedKeys)
	if err != nil {
		return err
	}

	s.evHandler("state: Commit: write to disk: blk[%d]", block.Index)

	if err := s.storage.Write(block); err != nil {
		return fmt.Errorf("write block %d: %w", block.Index, err)
	}

	s.chain = append(s.chain, block)
	for _, key := range keys {
		s.usedKeys[key] = struct{}{}
	}

	s.evHandler("state: Commit: remove records from mempool: records[%d]", len(block.Records))

	// Only the records held by the block are removed. Records submitted
	// while the block was mined stay pending.
	s.mempool.Remove(block.Records)

	s.metrics.SetChainLength(s.chain.Length())
	s.metrics.SetMempoolSize(s.mempool.Count())

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockKeys returns the uniqueness keys held by the block. It fails if a key
// is repeated inside the block or is already in the used set.
func blockKeys(block database.Block, field string, used map[string]struct{}) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})

	for _, rec := range block.Records {
		key, ok := rec.Key(field)
		if !ok {
			continue
		}

		if _, exists := used[key]; exists {
			return nil, fmt.Errorf("%w: blk[%d]: %q is already on the chain", mempool.ErrDuplicateKey, block.Index, key)
		}

		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("%w: blk[%d]: %q is repeated in the block", mempool.ErrDuplicateKey, block.Index, key)
		}

		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	return keys, nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	recordsJSON, err := json.Marshal(block.Records)
	if err != nil {
		recordsJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"index":%d,"hash":%q,"previous_hash":%q,"nonce":%d,"signer":%q,"records":%s}`, block.Index, block.Hash, block.PreviousHash, block.Nonce, block.Signer(), string(recordsJSON))
}
