package tree

import "github.com/ctreffe/alfred/pkg/domain"

// Policy decides which transitions a Section permits. The three shipped
// policies replace what would otherwise be an inheritance line of section
// classes; the Section core stays the same and only the hooks differ.
type Policy interface {
	// AdvancePastGate is consulted before the cursor moves off the active
	// child in the forward direction. With commit, leaves that pass the gate
	// are closed; without, the check is a pure probe (used by AllowLeaving).
	AdvancePastGate(s *Section, commit bool) error

	// AllowedJumpTarget reports whether a direct move whose leading index is
	// the given child index is legal for this section.
	AllowedJumpTarget(s *Section, leading int) bool

	// BackwardWithinBranchOnly confines backward movement to the active
	// branch: no falling back to a sibling scan at this level.
	BackwardWithinBranchOnly() bool

	// FirstLastEnabled reports whether MoveToFirst/MoveToLast act at all;
	// when disabled they are no-ops, not errors.
	FirstLastEnabled() bool

	// CursorMoved is notified after every accepted cursor change.
	CursorMoved(s *Section)
}

// PlainPolicy permits free movement among visible siblings.
type PlainPolicy struct{}

func (PlainPolicy) AdvancePastGate(*Section, bool) error { return nil }
func (PlainPolicy) AllowedJumpTarget(*Section, int) bool { return true }
func (PlainPolicy) BackwardWithinBranchOnly() bool       { return false }
func (PlainPolicy) FirstLastEnabled() bool               { return true }

func (PlainPolicy) CursorMoved(*Section) {}

// GatedPolicy keeps an append-only high-water mark: forward movement past the
// furthest explored position must pass a closing gate, and jump targets never
// point beyond explored territory.
type GatedPolicy struct{}

func (GatedPolicy) AdvancePastGate(s *Section, commit bool) error {
	if len(s.children) == 0 || s.cursor != s.maxReached {
		// Revisiting explored ground; the gate only guards the head.
		return nil
	}
	switch active := s.children[s.cursor].(type) {
	case *Page:
		if allowed, hint := active.AllowClosing(); !allowed {
			return gateRefusal("page cannot be closed yet", hint)
		}
		if commit {
			active.Close()
		}
	case *Section:
		if active.CanMoveForward() {
			// The branch is not exhausted yet; movement will delegate into it.
			return nil
		}
		leaves := active.VisibleLeaves()
		var hints []string
		for _, leaf := range leaves {
			if allowed, hint := leaf.AllowClosing(); !allowed {
				hints = append(hints, hint)
			}
		}
		if len(hints) > 0 {
			return &domain.MoveError{Op: "forward", Reason: "section cannot be closed yet", Hints: hints}
		}
		if commit {
			for _, leaf := range leaves {
				leaf.Close()
			}
		}
	}
	return nil
}

func (GatedPolicy) AllowedJumpTarget(s *Section, leading int) bool {
	return leading <= s.maxReached
}

func (GatedPolicy) BackwardWithinBranchOnly() bool { return false }
func (GatedPolicy) FirstLastEnabled() bool         { return true }

func (GatedPolicy) CursorMoved(s *Section) {
	if s.cursor > s.maxReached {
		s.maxReached = s.cursor
	}
}

// StrictPolicy is the gated behavior further confined to the active branch:
// no backward sibling scan, no first/last shortcuts, and direct moves only
// within the branch the cursor is already on.
type StrictPolicy struct {
	GatedPolicy
}

func (StrictPolicy) AllowedJumpTarget(s *Section, leading int) bool {
	return leading == s.cursor
}

func (StrictPolicy) BackwardWithinBranchOnly() bool { return true }
func (StrictPolicy) FirstLastEnabled() bool         { return false }

func gateRefusal(reason, hint string) *domain.MoveError {
	err := &domain.MoveError{Op: "forward", Reason: reason}
	if hint != "" {
		err.Hints = []string{hint}
	}
	return err
}
