package leafagent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/leaf/internal/pkg/server"
	httpserver "github.com/autopeer-io/leaf/internal/pkg/server/http"
)

var errNoCycle = errors.New("no cycle completed yet")

// Handler returns the status router: probes, metrics and /status.
func (a *Agent) Handler() *mux.Router {
	r := httpserver.NewRouter(func() error {
		if a.LastReport() == nil {
			return errNoCycle
		}
		return nil
	})

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		report := a.LastReport()
		if report == nil {
			http.Error(w, errNoCycle.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Cycles int          `json:"cycles"`
			Last   *CycleReport `json:"last"`
		}{a.Cycles(), report})
	}).Methods(http.MethodGet)

	return r
}

// Start runs the cycle loop beside the status server, when one is configured.
// It returns once the loop ends.
func (a *Agent) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := server.NewManager(server.Func(func(ctx context.Context) error {
		defer cancel()
		return a.Run(ctx)
	}))
	if a.httpOptions.Enabled() {
		m.Add(httpserver.NewServer(a.httpOptions, a.Handler()))
	}
	return m.Start(ctx)
}
