// Package peer maintains the peer related information such as the set
// of know peers and their status.
package peer

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string
}

// New constructs a peer from an address. The address can be a bare
// host:port or a url, in which case only the host part is kept.
func New(address string) (Peer, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Peer{}, errors.New("empty peer address")
	}

	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return Peer{}, err
	}

	if u.Host == "" {
		return Peer{}, errors.New("peer address has no host")
	}

	return Peer{Host: u.Host}, nil
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	LatestBlockHash  string `json:"latest_block_hash"`
	LatestBlockIndex uint64 `json:"latest_block_index"`
	Length           int    `json:"length"`
	KnownPeers       []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a list of the known peers sorted by host, leaving out the
// specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool {
		return peers[i].Host < peers[j].Host
	})

	return peers
}
