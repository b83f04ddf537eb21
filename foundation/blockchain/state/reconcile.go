package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// ReconcileResult describes the outcome of a reconciliation.
type ReconcileResult struct {
	Adopted bool   `json:"adopted"`
	Length  int    `json:"length"`
	Peer    string `json:"peer,omitempty"`
}

// peerChain is the chain returned by a peer.
type peerChain struct {
	peer  peer.Peer
	chain database.Chain
	err   error
}

// Reconcile applies the longest valid chain rule. Every known peer is asked
// for its chain and the longest one that is valid and longer than the local
// chain replaces it. When no peer qualifies the local chain is kept.
func (s *State) Reconcile(ctx context.Context) (ReconcileResult, error) {
	s.evHandler("state: Reconcile: started")
	defer s.evHandler("state: Reconcile: completed")

	started := time.Now()
	res, err := s.reconcile(ctx)
	s.metrics.ObserveReconcile(err, res.Adopted, started)

	return res, err
}

func (s *State) reconcile(ctx context.Context) (ReconcileResult, error) {
	peers := s.RetrieveKnownPeers()
	localLength := s.QueryChainLength()

	var best peerChain
	for _, pc := range s.fetchChains(ctx, peers) {
		if pc.err != nil {
			s.evHandler("state: Reconcile: peer[%s]: skipped: %s", pc.peer.Host, pc.err)
			continue
		}

		length := pc.chain.Length()
		if length <= localLength || (best.chain != nil && length <= best.chain.Length()) {
			s.evHandler("state: Reconcile: peer[%s]: length[%d]: not longer", pc.peer.Host, length)
			continue
		}

		if err := s.checkPeerChain(pc.chain); err != nil {
			s.evHandler("state: Reconcile: peer[%s]: length[%d]: REJECTED: %s", pc.peer.Host, length, err)
			continue
		}

		best = pc
	}

	if best.chain == nil {
		return ReconcileResult{Length: localLength}, nil
	}

	// Any mining operation is building on a tip that is about to go away.
	s.CancelMining()

	return s.adopt(best)
}

// adopt swaps in the peer chain, rebuilds the used keys and filters the
// mempool of records that are now on the chain or now duplicate.
func (s *State) adopt(best peerChain) (ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A commit may have happened since the chains were fetched.
	if best.chain.Length() <= s.chain.Length() {
		return ReconcileResult{Length: s.chain.Length()}, nil
	}

	s.evHandler("state: Reconcile: peer[%s]: adopting chain: length[%d]", best.peer.Host, best.chain.Length())

	if err := database.WriteChain(s.storage, best.chain); err != nil {
		if rerr := database.WriteChain(s.storage, s.chain); rerr != nil {
			s.evHandler("state: Reconcile: ERROR: restoring local chain: %s", rerr)
		}
		return ReconcileResult{Length: s.chain.Length()}, fmt.Errorf("persist adopted chain: %w", err)
	}

	field := s.genesis.KeyField
	s.chain = best.chain
	s.usedKeys = best.chain.UsedKeys(field)

	onChain := best.chain.RecordIDs()
	pending := make(map[string]struct{})

	dropped := s.mempool.Filter(func(rec database.Record) bool {
		if _, exists := onChain[rec.ID()]; exists {
			return false
		}

		key, ok := rec.Key(field)
		if !ok {
			return true
		}

		if _, exists := s.usedKeys[key]; exists {
			return false
		}
		if _, exists := pending[key]; exists {
			return false
		}

		pending[key] = struct{}{}
		return true
	})

	s.evHandler("state: Reconcile: mempool filtered: dropped[%d]: pending[%d]", dropped, s.mempool.Count())

	s.metrics.SetChainLength(s.chain.Length())
	s.metrics.SetMempoolSize(s.mempool.Count())
	s.blockEvent(s.chain.Tip())

	res := ReconcileResult{
		Adopted: true,
		Length:  s.chain.Length(),
		Peer:    best.peer.Host,
	}

	return res, nil
}

// checkPeerChain validates the peer chain unless the exact same chain was
// already rejected. Rejections are remembered so a peer serving the same
// invalid chain is not verified again on every reconcile.
func (s *State) checkPeerChain(chain database.Chain) error {
	data, err := database.Serialize(chain)
	if err != nil {
		return err
	}
	digest := signature.HashBytes(data)

	if v, exists := s.rejected.Get(digest); exists {
		return fmt.Errorf("previously rejected: %w", v.(error))
	}

	if err := s.validatePeerChain(chain); err != nil {
		s.rejected.Add(digest, err)
		return err
	}

	return nil
}

// validatePeerChain applies the chain rules plus the node's own rules on
// difficulty and uniqueness keys.
func (s *State) validatePeerChain(chain database.Chain) error {
	if err := chain.Validate(); err != nil {
		return err
	}

	if chain.MinDifficulty() < s.genesis.Difficulty {
		return fmt.Errorf("%w: chain difficulty %d is below %d", database.ErrInvalidProof, chain.MinDifficulty(), s.genesis.Difficulty)
	}

	used := make(map[string]struct{})
	for _, block := range chain {
		keys, err := blockKeys(block, s.genesis.KeyField, used)
		if err != nil {
			return err
		}
		for _, key := range keys {
			used[key] = struct{}{}
		}
	}

	return nil
}

// fetchChains asks every peer for its chain in parallel. Each fetch is
// bounded by the peer timeout and the fetches are paced by the limiter.
func (s *State) fetchChains(ctx context.Context, peers []peer.Peer) []peerChain {
	results := make([]peerChain, len(peers))

	var wg sync.WaitGroup
	for i, pr := range peers {
		s.limiter.Take()

		wg.Add(1)
		go func(i int, pr peer.Peer) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
			defer cancel()

			started := time.Now()
			chain, err := s.fetcher.FetchChain(ctx, pr)
			s.metrics.ObservePeerFetch(err, started)

			results[i] = peerChain{peer: pr, chain: chain, err: err}
		}(i, pr)
	}

	wg.Wait()

	return results
}
