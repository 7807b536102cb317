package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalMove is the base error for navigation requests the tree refuses:
// moving past a boundary, jumping to an invisible or out-of-range target, or
// being held back by a closing gate. Callers match it with errors.Is and
// re-render with feedback; it is always recoverable.
var ErrIllegalMove = errors.New("illegal move")

// ErrInvalidPath is returned for malformed position paths (empty, or deeper
// than the tree below the addressed node). It is never silently coerced.
var ErrInvalidPath = errors.New("invalid position path")

// ErrTagAlreadySet is returned when a node's tag is explicitly set a second time.
var ErrTagAlreadySet = errors.New("tag already set")

// ErrConfiguration marks fatal setup errors; session construction aborts on it.
var ErrConfiguration = errors.New("configuration error")

// ErrNotFound is returned by tree lookups for an unknown uid or tag.
var ErrNotFound = errors.New("node not found")

// MoveError carries the reason a navigation request was refused, and, for
// gate refusals, the corrective hints collected from the refusing pages.
type MoveError struct {
	Op     string   // operation that failed, e.g. "forward", "jump"
	Reason string   // human-readable cause
	Hints  []string // corrective messages from pages that blocked the move
}

func (e *MoveError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Reason)
	if len(e.Hints) > 0 {
		msg += " (" + strings.Join(e.Hints, "; ") + ")"
	}
	return msg
}

func (e *MoveError) Unwrap() error { return ErrIllegalMove }

// NewMoveError builds a MoveError without hints.
func NewMoveError(op, reason string) *MoveError {
	return &MoveError{Op: op, Reason: reason}
}
