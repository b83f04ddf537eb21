// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/okilalu/Blockchain/app/services/node/handlers/v1/private"
	"github.com/okilalu/Blockchain/app/services/node/handlers/v1/public"
	"github.com/okilalu/Blockchain/foundation/blockchain/state"
	"github.com/okilalu/Blockchain/foundation/events"
	"github.com/okilalu/Blockchain/foundation/nameservice"
	"github.com/okilalu/Blockchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/blockchain", pbl.Blockchain)
	app.Handle(http.MethodGet, version, "/blocks/:index", pbl.Block)
	app.Handle(http.MethodPost, version, "/records", pbl.SubmitRecord)
	app.Handle(http.MethodPost, version, "/transactions", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/records/pending", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/keys/used/:key", pbl.KeyStatus)
	app.Handle(http.MethodGet, version, "/mine", pbl.Mine)
	app.Handle(http.MethodGet, version, "/peers", pbl.Peers)
	app.Handle(http.MethodPost, version, "/peers", pbl.AddPeers)
	app.Handle(http.MethodGet, version, "/sync", pbl.Sync)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/chain", prv.Chain)
}
