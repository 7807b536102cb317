// Package memory implements a map-backed storage agent, used in tests and as
// a last-ditch fallback tier entry.
package memory

import (
	"context"
	"sync"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Agent keeps the newest snapshot per session in memory.
type Agent struct {
	level domain.Level

	mu    sync.Mutex
	snaps map[string]domain.Snapshot
}

// New creates the agent.
func New(level domain.Level) *Agent {
	return &Agent{
		level: level,
		snaps: make(map[string]domain.Snapshot),
	}
}

func (a *Agent) Name() string                  { return "memory" }
func (a *Agent) ActivationLevel() domain.Level { return a.level }

// Save keeps a deep copy, so later tree mutations cannot bleed in.
func (a *Agent) Save(ctx context.Context, snap domain.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snaps[snap.SessionID()] = snap.Clone()
	return nil
}

// Snapshot returns the stored snapshot for a session.
func (a *Agent) Snapshot(sessionID string) (domain.Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.snaps[sessionID]
	return snap, ok
}

// Len returns the number of stored sessions.
func (a *Agent) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.snaps)
}
