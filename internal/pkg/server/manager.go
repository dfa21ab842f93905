package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/leaf/pkg/log"
)

// Server defines the common interface for long-running components (HTTP servers,
// the agent's cycle loop).
type Server interface {
	Start(ctx context.Context) error
}

// Func adapts a plain function to Server.
type Func func(ctx context.Context) error

func (f Func) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of a set of servers.
type Manager struct {
	servers []Server
}

// NewManager creates a manager for servers. Nil entries are skipped so optional
// servers can be passed unconditionally.
func NewManager(servers ...Server) *Manager {
	m := &Manager{}
	for _, s := range servers {
		m.Add(s)
	}
	return m
}

// Add registers s.
func (m *Manager) Add(s Server) {
	if s != nil {
		m.servers = append(m.servers, s)
	}
}

// Start launches all servers in parallel and waits for termination. The first
// failure cancels the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Debug("All servers starting", "count", len(m.servers))
	return g.Wait()
}
