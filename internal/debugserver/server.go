// Package debugserver exposes a minimal HTTP introspection endpoint over
// a running Router, trimmed down from
// boomballa-df2redis/internal/web/server.go's net/http.ServeMux-based
// migration dashboard to the two read-only routes a cluster client needs:
// the current slot table and the set of known node connections.
package debugserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/boomballa/rkv/internal/command"
)

// Inspector is the subset of *router.Router the debug server reads from.
type Inspector interface {
	Nodes() []string
	Slots(ctx context.Context) ([]command.SlotRange, error)
}

// New builds an http.Handler serving GET /slots and GET /nodes against r.
func New(r Inspector) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/slots", func(w http.ResponseWriter, req *http.Request) {
		slots, err := r.Slots(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, slots)
	})
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.Nodes())
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Serve blocks, running the debug server on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, r Inspector) error {
	srv := &http.Server{Addr: addr, Handler: New(r)}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
