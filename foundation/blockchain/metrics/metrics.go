// Package metrics provides the Prometheus collectors for a ledger node.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	miningTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "mining_total",
		Help:      "Count of mining operations by outcome.",
	}, []string{"node", "status"})

	miningDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "mining_duration_seconds",
		Help:      "Duration of the proof of work search.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"node", "status"})

	commitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "commit_total",
		Help:      "Count of block commits by outcome.",
	}, []string{"node", "status"})

	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "reconcile_total",
		Help:      "Count of consensus reconciliations by outcome.",
	}, []string{"node", "status"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a consensus reconciliation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"node", "status"})

	peerFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "peer",
		Name:      "fetch_total",
		Help:      "Count of peer chain fetches by outcome.",
	}, []string{"node", "status"})

	peerFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger",
		Subsystem: "peer",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of fetching a peer chain.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"node", "status"})

	chainLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "chain_length",
		Help:      "Number of blocks in the local chain including genesis.",
	}, []string{"node"})

	mempoolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "node",
		Name:      "mempool_records",
		Help:      "Number of records waiting to be mined.",
	}, []string{"node"})
)

// Set of status label values.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
	StatusAdopted   = "adopted"
	StatusKept      = "kept"
)

// Node tracks metrics for a single ledger node.
type Node struct {
	node string
}

// NewNode constructs a Node value labelled with the node's host.
func NewNode(host string) *Node {
	if host == "" {
		host = "unknown"
	}
	return &Node{node: host}
}

// ObserveMining records the outcome and duration of a mining operation.
func (m *Node) ObserveMining(err error, started time.Time) {
	status := outcome(err)
	miningTotal.WithLabelValues(m.node, status).Inc()
	miningDuration.WithLabelValues(m.node, status).Observe(time.Since(started).Seconds())
}

// ObserveCommit records the outcome of a block commit.
func (m *Node) ObserveCommit(err error) {
	commitTotal.WithLabelValues(m.node, outcome(err)).Inc()
}

// ObserveReconcile records the outcome and duration of a reconciliation.
func (m *Node) ObserveReconcile(err error, adopted bool, started time.Time) {
	status := outcome(err)
	if err == nil {
		status = StatusKept
		if adopted {
			status = StatusAdopted
		}
	}
	reconcileTotal.WithLabelValues(m.node, status).Inc()
	reconcileDuration.WithLabelValues(m.node, status).Observe(time.Since(started).Seconds())
}

// ObservePeerFetch records the outcome and duration of a peer chain fetch.
func (m *Node) ObservePeerFetch(err error, started time.Time) {
	status := outcome(err)
	peerFetchTotal.WithLabelValues(m.node, status).Inc()
	peerFetchDuration.WithLabelValues(m.node, status).Observe(time.Since(started).Seconds())
}

// SetChainLength records the length of the local chain.
func (m *Node) SetChainLength(length int) {
	chainLength.WithLabelValues(m.node).Set(float64(length))
}

// SetMempoolSize records the number of pending records.
func (m *Node) SetMempoolSize(size int) {
	mempoolSize.WithLabelValues(m.node).Set(float64(size))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusError
	}
}
