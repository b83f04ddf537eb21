// Package worker implements mining and chain synchronization for the
// blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/state"
)

// DefaultSyncInterval represents the interval of reconciling the local
// chain with the chains held by the known peers.
const DefaultSyncInterval = time.Minute

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	ticker      *time.Ticker
	shut        chan struct{}
	shutOnce    sync.Once
	startMining chan bool
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes. A sync interval of zero or less
// turns off the periodic sync.
func Run(st *state.State, syncInterval time.Duration, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:       st,
		shut:        make(chan struct{}),
		startMining: make(chan bool, 1),
		evHandler:   evHandler,
	}

	if syncInterval > 0 {
		w.ticker = time.NewTicker(syncInterval)
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.syncOperations,
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Records may have been loaded before the worker was running.
	if st.QueryMempoolLength() > 0 {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: started")
		defer w.evHandler("worker: shutdown: completed")

		if w.ticker != nil {
			w.evHandler("worker: shutdown: stop ticker")
			w.ticker.Stop()
		}

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)

		w.evHandler("worker: shutdown: signal cancel mining")
		w.state.CancelMining()

		w.wg.Wait()
	})
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// shutContext returns a context that is cancelled when the worker shuts down.
func (w *Worker) shutContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
