// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/database/storage/memory"
	"github.com/okilalu/Blockchain/foundation/blockchain/genesis"
	"github.com/okilalu/Blockchain/foundation/blockchain/mempool"
	"github.com/okilalu/Blockchain/foundation/blockchain/metrics"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
	"go.uber.org/ratelimit"
)

// Set of errors returned by the state API.
var (
	ErrStaleTip         = errors.New("stale tip")
	ErrMiningInProgress = errors.New("mining in progress")
	ErrNoRecords        = errors.New("no records in mempool")
	ErrPeerUnreachable  = errors.New("peer unreachable")
)

// DefaultPeerTimeout is the time given to a peer to return its chain.
const DefaultPeerTimeout = 5 * time.Second

// rejectedCacheSize is the number of rejected peer chains remembered.
const rejectedCacheSize = 256

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer synchronization.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Signer        *ecdsa.PrivateKey
	Host          string
	Genesis       genesis.Genesis
	Storage       database.Storage
	KnownPeers    *peer.PeerSet
	PeerFetcher   PeerFetcher
	PeerTimeout   time.Duration
	PeerFetchRate int
	AutoMine      bool
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu          sync.RWMutex
	signer      *ecdsa.PrivateKey
	host        string
	evHandler   EventHandler
	genesis     genesis.Genesis
	chain       database.Chain
	usedKeys    map[string]struct{}
	autoMine    bool
	peerTimeout time.Duration

	knownPeers *peer.PeerSet
	mempool    *mempool.Mempool
	storage    database.Storage
	fetcher    PeerFetcher
	limiter    ratelimit.Limiter
	metrics    *metrics.Node
	rejected   *lru.Cache

	miningMu     sync.Mutex
	miningCancel context.CancelFunc

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {
	if cfg.Signer == nil {
		return nil, errors.New("a signing key is required")
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strg := cfg.Storage
	if strg == nil {
		strg = memory.New()
	}

	// Load all existing blocks from storage into memory for processing.
	chain, err := database.ReadChain(strg, ev)
	if err != nil {
		return nil, err
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetcher := cfg.PeerFetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout <= 0 {
		peerTimeout = DefaultPeerTimeout
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.PeerFetchRate > 0 {
		limiter = ratelimit.New(cfg.PeerFetchRate)
	}

	rejected, err := lru.New(rejectedCacheSize)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		signer:      cfg.Signer,
		host:        cfg.Host,
		evHandler:   ev,
		genesis:     cfg.Genesis,
		chain:       chain,
		usedKeys:    chain.UsedKeys(cfg.Genesis.KeyField),
		autoMine:    cfg.AutoMine,
		peerTimeout: peerTimeout,

		knownPeers: knownPeers,
		mempool:    mempool.New(cfg.Genesis.KeyField),
		storage:    strg,
		fetcher:    fetcher,
		limiter:    limiter,
		metrics:    metrics.NewNode(cfg.Host),
		rejected:   rejected,
	}

	state.metrics.SetChainLength(chain.Length())
	ev("state: New: chain loaded: length[%d]: tip[%s]", chain.Length(), chain.Tip().Hash)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.storage.Close()
	}()

	// Stop any mining operation that is running.
	s.CancelMining()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// IsMining reports whether a mining operation is running.
func (s *State) IsMining() bool {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	return s.miningCancel != nil
}

// CancelMining stops the mining operation that is running, if any. The
// pool is left untouched.
func (s *State) CancelMining() {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	if s.miningCancel != nil {
		s.evHandler("state: CancelMining: signal mining to stop")
		s.miningCancel()
	}
}

// startMining registers the cancel function of a new mining operation. It
// returns false when an operation is already running.
func (s *State) startMining(cancel context.CancelFunc) bool {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	if s.miningCancel != nil {
		return false
	}

	s.miningCancel = cancel
	return true
}

// stopMining releases the mining slot.
func (s *State) stopMining() {
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	if s.miningCancel != nil {
		s.miningCancel()
		s.miningCancel = nil
	}
}
