// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okilalu/Blockchain/foundation/blockchain/database"
	"github.com/okilalu/Blockchain/foundation/blockchain/state"
	"github.com/okilalu/Blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.RetrieveStatus()
	return web.Respond(ctx, w, status, http.StatusOK)
}

// Chain returns the full chain in the wire format peers consume when they
// reconcile.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := database.Serialize(h.State.QueryChain())
	if err != nil {
		return fmt.Errorf("serialize chain: %w", err)
	}

	return web.RespondJSON(ctx, w, data, http.StatusOK)
}
