package state

import (
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer. The node's own host
// is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}

// TruncateMempool drops every pending record.
func (s *State) TruncateMempool() {
	s.mempool.Truncate()
	s.metrics.SetMempoolSize(0)
}
