package worker

import (
	"time"
)

// syncOperations reconciles the chain on every tick.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	var tick <-chan time.Time
	if w.ticker != nil {
		tick = w.ticker.C
	}

	for {
		select {
		case <-tick:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// Sync applies the longest valid chain rule against the known peers.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	ctx, cancel := w.shutContext()
	defer cancel()

	res, err := w.state.Reconcile(ctx)
	if err != nil {
		w.evHandler("worker: sync: ERROR: %s", err)
		return
	}

	w.evHandler("worker: sync: adopted[%t]: length[%d]: peer[%s]", res.Adopted, res.Length, res.Peer)

	if res.Adopted {
		w.signalIfPending()
	}
}
