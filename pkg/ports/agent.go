// Package ports defines the interfaces between the session core and its
// storage backends, plus a reusable contract test for agent implementations.
package ports

import (
	"context"

	"github.com/ctreffe/alfred/pkg/domain"
)

// StorageAgent durably writes one snapshot to one backend. Implementations
// own their connection setup and must upsert idempotently keyed by the
// snapshot's session uid: saving the same session twice overwrites, never
// duplicates.
type StorageAgent interface {
	// Name identifies the agent in logs and metrics.
	Name() string

	// ActivationLevel is the minimum urgency a save request must carry for
	// this agent to run.
	ActivationLevel() domain.Level

	// Save writes the snapshot. Errors are caught and logged by the saving
	// controller; they never reach the participant.
	Save(ctx context.Context, snap domain.Snapshot) error
}
