package worker

import (
	"errors"
	"time"

	"github.com/okilalu/Blockchain/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes the records from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Make sure there are records in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no records to mine: records[%d]", length)
		return
	}

	// Create a context so mining is cancelled on shutdown. Reconcile
	// cancels mining through the state.
	ctx, cancel := w.shutContext()
	defer cancel()

	t := time.Now()
	block, err := w.state.MineNewBlock(ctx)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoRecords):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: no records in mempool")
		case errors.Is(err, state.ErrMiningInProgress):
			w.evHandler("worker: runMiningOperation: MINING: WARNING: mining already in progress")
			w.waitForMiningSlot()
			w.signalIfPending()
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		case errors.Is(err, state.ErrStaleTip):
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: chain changed")
			w.signalIfPending()
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: blk[%d]: hash[%s]", block.Index, block.Hash)

	// After a successful mining operation, check if a new operation should
	// be signaled again.
	w.signalIfPending()
}

// signalIfPending signals a new mining operation when records are waiting.
func (w *Worker) signalIfPending() {
	if length := w.state.QueryMempoolLength(); length > 0 && !w.isShutdown() {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: records[%d]", length)
		w.SignalStartMining()
	}
}

// waitForMiningSlot blocks until the running mining operation releases the
// slot or the worker is shut down.
func (w *Worker) waitForMiningSlot() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for w.state.IsMining() {
		select {
		case <-ticker.C:
		case <-w.shut:
			return
		}
	}
}
