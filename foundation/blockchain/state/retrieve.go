package state

import (
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
	"github.com/okilalu/Blockchain/foundation/blockchain/signature"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveSigner returns the address of the key the node signs blocks with.
func (s *State) RetrieveSigner() string {
	return signature.Address(s.signer.PublicKey)
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain.Tip()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Record {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status of this node as seen by its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	tip := s.chain.Tip()
	length := s.chain.Length()
	s.mu.RUnlock()

	return peer.PeerStatus{
		LatestBlockHash:  tip.Hash,
		LatestBlockIndex: tip.Index,
		Length:           length,
		KnownPeers:       s.RetrieveKnownPeers(),
	}
}
