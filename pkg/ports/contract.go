package ports

import (
	"context"
	"testing"

	"github.com/ctreffe/alfred/pkg/domain"
)

// RunStorageAgentContract verifies the behavior every StorageAgent must
// provide. load reads back the stored snapshot for a session uid, so the
// contract stays backend-agnostic.
func RunStorageAgentContract(t *testing.T, agent StorageAgent, load func(sessionID string) (domain.Snapshot, error)) {
	t.Helper()
	ctx := context.Background()

	snap := domain.Snapshot{
		domain.KeySessionID: "contract-session",
		domain.KeyExpName:   "contract",
		domain.KeySubtree: []domain.Snapshot{
			{domain.KeyTag: "1", domain.KeyUID: "u1"},
		},
	}

	t.Run("Save", func(t *testing.T) {
		if err := agent.Save(ctx, snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		stored, err := load("contract-session")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if stored.SessionID() != "contract-session" {
			t.Errorf("expected session_id %q, got %q", "contract-session", stored.SessionID())
		}
	})

	t.Run("UpsertOverwrites", func(t *testing.T) {
		updated := snap.Clone()
		updated[domain.KeyExpVersion] = "2"
		if err := agent.Save(ctx, updated); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}
		stored, err := load("contract-session")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if stored[domain.KeyExpVersion] != "2" {
			t.Errorf("expected overwritten snapshot, got %v", stored[domain.KeyExpVersion])
		}
	})
}
