package mid

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okilalu/Blockchain/foundation/web"
)

// corsMaxAge is how long a browser may cache the preflight answer.
const corsMaxAge = 10 * time.Minute

// Cors lets browsers on the given origin call the node. The node only
// serves reads and record submissions, so only GET and POST are allowed.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length")
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(corsMaxAge.Seconds())))

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
