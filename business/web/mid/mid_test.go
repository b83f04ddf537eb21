package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okilalu/Blockchain/business/sys/validate"
	"github.com/okilalu/Blockchain/business/web/errs"
	"github.com/okilalu/Blockchain/business/web/mid"
	"github.com/okilalu/Blockchain/foundation/logger"
	"github.com/okilalu/Blockchain/foundation/web"
)

func Test_Errors(t *testing.T) {
	log, err := logger.New("TEST", "stderr")
	if err != nil {
		t.Fatalf("Should be able to construct a logger: %s", err)
	}
	defer log.Sync()

	type table struct {
		name    string
		handler web.Handler
		status  int
		fields  bool
	}

	tt := []table{
		{
			name: "trusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.NewTrusted(errors.New("mining in progress"), http.StatusConflict)
			},
			status: http.StatusConflict,
		},
		{
			name: "fields",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return validate.NewFieldsError("nodes", errors.New("nodes is required"))
			},
			status: http.StatusBadRequest,
			fields: true,
		},
		{
			name: "untrusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("disk is on fire")
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "cors",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			},
			status: http.StatusNoContent,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			app := web.NewApp(nil, mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Cors("*"), mid.Panics())
			app.Handle(http.MethodGet, "v1", "/test", tst.handler)

			r := httptest.NewRequest(http.MethodGet, "/v1/test", nil)
			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			if w.Code != tst.status {
				t.Logf("Test %s:\tgot: %d", tst.name, w.Code)
				t.Logf("Test %s:\texp: %d", tst.name, tst.status)
				t.Fatalf("Test %s:\tShould get back the right status code.", tst.name)
			}

			if w.Header().Get("Access-Control-Allow-Origin") != "*" ||
				w.Header().Get("Access-Control-Allow-Methods") != "GET, POST, OPTIONS" ||
				w.Header().Get("Access-Control-Max-Age") != "600" {
				t.Fatalf("Test %s:\tShould get the cors headers: %v", tst.name, w.Header())
			}

			if tst.status == http.StatusNoContent {
				return
			}

			var resp errs.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Test %s:\tShould get back an error response: %s", tst.name, err)
			}

			if resp.Error == "" || (tst.fields && resp.Fields["nodes"] == "") {
				t.Fatalf("Test %s:\tShould get back the error details: %+v", tst.name, resp)
			}
		}

		t.Run(tst.name, f)
	}
}
