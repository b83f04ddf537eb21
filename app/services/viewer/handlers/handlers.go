// Package handlers contains the full set of handler functions and routes
// supported by the web api.
package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"

	"github.com/okilalu/Blockchain/business/web/mid"
	"github.com/okilalu/Blockchain/foundation/web"
	"go.uber.org/zap"
)

//go:embed assets/index.html
var assets embed.FS

// blockPrefix starts every node event that describes a new block.
const blockPrefix = "viewer: block: "

// Config contains all the mandatory systems required by the viewer.
type Config struct {
	Build    string
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	NodeHost string
}

// UIMux constructs an http.Handler with all application routes defined.
func UIMux(cfg Config) (*web.App, error) {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Panics(),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(cfg.Build, cfg.NodeHost)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}

// =============================================================================

type index struct {
	tmpl *template.Template
	data indexData
}

type indexData struct {
	Build    string
	EventURL string
	ChainURL string
}

func newIndex(build string, nodeHost string) (index, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return index{}, err
	}

	ig := index{
		tmpl: tmpl,
		data: indexData{
			Build:    build,
			EventURL: fmt.Sprintf("ws://%s/v1/events?prefix=%s", nodeHost, url.QueryEscape(blockPrefix)),
			ChainURL: fmt.Sprintf("http://%s/v1/blockchain", nodeHost),
		},
	}

	return ig, nil
}

func (ig index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	web.SetStatusCode(ctx, http.StatusOK)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ig.tmpl.Execute(w, ig.data); err != nil {
		return fmt.Errorf("execute index template: %w", err)
	}

	return nil
}
