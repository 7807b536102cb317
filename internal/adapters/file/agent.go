// Package file implements the local-file storage agent. It doubles as the
// fixed failure agent: whenever a networked backend refuses a snapshot, this
// is the tier of last resort, so its writes are kept deliberately simple and
// atomic.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Agent stores one JSON document per session under a base directory.
type Agent struct {
	basePath string
	level    domain.Level
}

// Option configures the Agent.
type Option func(*Agent)

// WithActivationLevel sets the minimum job level this agent runs for.
func WithActivationLevel(level domain.Level) Option {
	return func(a *Agent) { a.level = level }
}

// New creates the agent and ensures the base directory exists, so a
// misconfigured path fails at construction time rather than on the first
// save.
func New(basePath string, opts ...Option) (*Agent, error) {
	if basePath == "" {
		basePath = filepath.Join(".alfred", "sessions")
	}
	a := &Agent{
		basePath: basePath,
		level:    domain.LevelRoutine,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := os.MkdirAll(a.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure session directory: %w", err)
	}
	return a, nil
}

func (a *Agent) Name() string                  { return "file:" + a.basePath }
func (a *Agent) ActivationLevel() domain.Level { return a.level }

// Save writes the snapshot atomically: temp file in the same directory,
// fsync, then rename over the destination. Keyed by session uid, so repeated
// saves overwrite.
func (a *Agent) Save(ctx context.Context, snap domain.Snapshot) error {
	sessionID := snap.SessionID()
	if sessionID == "" {
		return fmt.Errorf("snapshot carries no session id")
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	destPath := filepath.Join(a.basePath, sessionID+".json")
	tmpFile, err := os.CreateTemp(a.basePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load reads a stored snapshot back, for resuming sessions and for tests.
func (a *Agent) Load(sessionID string) (domain.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(a.basePath, sessionID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
