// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okilalu/Blockchain/business/sys/validate"
	"github.com/okilalu/Blockchain/business/web/errs"
	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/mempool"
	"github.com/okilalu/Blockchain/foundation/blockchain/peer"
	"github.com/okilalu/Blockchain/foundation/blockchain/state"
	"github.com/okilalu/Blockchain/foundation/events"
	"github.com/okilalu/Blockchain/foundation/nameservice"
	"github.com/okilalu/Blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// A client can ask for a subset of the events, the viewer only wants
	// the block events.
	ch := h.Evts.Acquire(v.TraceID, r.URL.Query()["prefix"]...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blockchain returns the full chain and its length.
func (h Handlers) Blockchain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.QueryChain()

	ci := chainInfo{
		Chain:  h.toBlocks(chain),
		Length: chain.Length(),
	}

	return web.Respond(ctx, w, ci, http.StatusOK)
}

// Block returns the block at the specified index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	blk, err := h.State.QueryBlock(index)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, h.toBlock(blk), http.StatusOK)
}

// SubmitRecord adds a new record to the mempool.
func (h Handlers) SubmitRecord(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rec database.Record
	if err := web.Decode(r, &rec); err != nil {
		return decodeError(err)
	}

	return h.submit(ctx, w, rec)
}

// SubmitTransaction adds a new sender, recipient and amount transfer to the
// mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nt newTransaction
	if err := web.Decode(r, &nt); err != nil {
		return decodeError(err)
	}

	return h.submit(ctx, w, nt.toRecord())
}

// Mempool returns the set of pending records.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	records := h.State.RetrieveMempool()

	p := pending{
		Count:   len(records),
		Records: records,
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// KeyStatus reports whether a uniqueness key is used on the chain or held by
// a pending record.
func (h Handlers) KeyStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key := web.Param(r, "key")

	onChain, pending := h.State.QueryKey(key)

	ks := keyStatus{
		Key:     key,
		OnChain: onChain,
		Pending: pending,
	}

	return web.Respond(ctx, w, ks, http.StatusOK)
}

// Mine mines the pending records into a new block and appends it to the
// chain. The operation stops if the client goes away.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	started := time.Now()

	blk, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoRecords):
			return errs.NewTrusted(err, http.StatusBadRequest)

		case errors.Is(err, state.ErrMiningInProgress), errors.Is(err, state.ErrStaleTip):
			return errs.NewTrusted(err, http.StatusConflict)

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(fmt.Errorf("mining cancelled: %w", err), http.StatusServiceUnavailable)

		case errors.Is(err, mempool.ErrDuplicateKey):
			return errs.NewTrusted(err, http.StatusConflict)
		}

		return fmt.Errorf("mine new block: %w", err)
	}

	took := time.Since(started)
	h.Log.Infow("mine", "traceid", v.TraceID, "index", blk.Index, "nonce", blk.Nonce, "took", took)

	resp := mined{
		Message:  "New block mined",
		Block:    h.toBlock(blk),
		Duration: took.String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the set of known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	known := h.State.RetrieveKnownPeers()

	nodes := make([]string, len(known))
	for i, pr := range known {
		nodes[i] = pr.Host
	}

	resp := peers{
		Host:  h.State.RetrieveHost(),
		Nodes: nodes,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddPeers registers the set of node addresses as known peers.
func (h Handlers) AddPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var np newPeers
	if err := web.Decode(r, &np); err != nil {
		return decodeError(err)
	}

	// Parse every address before adding any of them.
	prs := make([]peer.Peer, len(np.Nodes))
	for i, node := range np.Nodes {
		pr, err := peer.New(node)
		if err != nil {
			return validate.NewFieldsError(fmt.Sprintf("nodes[%d]", i), err)
		}
		prs[i] = pr
	}

	for _, pr := range prs {
		if h.State.AddKnownPeer(pr) {
			h.Log.Infow("add peer", "traceid", v.TraceID, "host", pr.Host)
		}
	}

	known := h.State.RetrieveKnownPeers()

	nodes := make([]string, len(known))
	for i, pr := range known {
		nodes[i] = pr.Host
	}

	resp := peers{
		Host:  h.State.RetrieveHost(),
		Nodes: nodes,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Sync reconciles the local chain with the known peers using the longest
// valid chain rule.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := h.State.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	msg := "Our chain is authoritative"
	if res.Adopted {
		msg = "Our chain was replaced"
	}

	resp := synced{
		Message: msg,
		Adopted: res.Adopted,
		Peer:    res.Peer,
		Length:  res.Length,
		Chain:   h.toBlocks(h.State.QueryChain()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func (h Handlers) submit(ctx context.Context, w http.ResponseWriter, rec database.Record) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	index, err := h.State.SubmitRecord(rec)
	if err != nil {
		if errors.Is(err, mempool.ErrDuplicateKey) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	id := rec.ID()
	h.Log.Infow("add record", "traceid", v.TraceID, "record", id, "index", index)

	resp := submitted{
		Message:  fmt.Sprintf("Record will be added to block %d", index),
		RecordID: id,
		Index:    index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

func (h Handlers) toBlock(blk database.Block) block {
	b := block{
		Index:        blk.Index,
		PreviousHash: blk.PreviousHash,
		TimeStamp:    blk.TimeStamp,
		Records:      blk.Records,
		Nonce:        blk.Nonce,
		Hash:         blk.Hash,
		Difficulty:   blk.Difficulty,
		Signature:    blk.Signature,
		PublicKey:    blk.PublicKey,
		Signer:       blk.Signer(),
	}

	if b.Records == nil {
		b.Records = []database.Record{}
	}

	if b.Signer != "" && h.NS != nil {
		b.SignerName = h.NS.Lookup(b.Signer)
	}

	return b
}

func (h Handlers) toBlocks(chain database.Chain) []block {
	blocks := make([]block, len(chain))
	for i, blk := range chain {
		blocks[i] = h.toBlock(blk)
	}
	return blocks
}

// decodeError keeps field errors for the error middleware and turns anything
// else into a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}
