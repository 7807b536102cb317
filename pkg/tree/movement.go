package tree

import (
	"errors"
	"fmt"

	"github.com/ctreffe/alfred/pkg/domain"
)

// CanMoveForward reports whether at least one visible candidate exists after
// the cursor, delegating into an active nested section first.
func (s *Section) CanMoveForward() bool {
	if len(s.children) == 0 {
		return false
	}
	if sub, ok := s.children[s.cursor].(*Section); ok && sub.CanMoveForward() {
		return true
	}
	return s.scanVisible(s.cursor+1, +1) >= 0
}

// CanMoveBackward reports whether at least one visible candidate exists before
// the cursor. Under a branch-confined policy only the active nested section's
// own backward capacity counts.
func (s *Section) CanMoveBackward() bool {
	if len(s.children) == 0 {
		return false
	}
	if sub, ok := s.children[s.cursor].(*Section); ok && sub.CanMoveBackward() {
		return true
	}
	if s.policy.BackwardWithinBranchOnly() {
		return false
	}
	return s.scanVisible(s.cursor-1, -1) >= 0
}

// MoveForward advances to the next visible candidate. The active nested
// section moves internally first; once it is exhausted the outgoing child
// must release focus and pass the policy's gate before the cursor moves on.
func (s *Section) MoveForward() error {
	if !s.CanMoveForward() {
		return domain.NewMoveError("forward", "no visible page ahead")
	}
	active := s.children[s.cursor]
	if sub, ok := active.(*Section); ok && sub.CanMoveForward() {
		if err := sub.MoveForward(); err != nil {
			return err
		}
		s.lastBlock = nil
		return nil
	}
	if !active.AllowLeaving(domain.Forward) {
		return domain.NewMoveError("forward", "current page refuses to release focus")
	}
	if err := s.policy.AdvancePastGate(s, true); err != nil {
		var moveErr *domain.MoveError
		if errors.As(err, &moveErr) {
			s.lastBlock = moveErr
		}
		return err
	}
	next := s.scanVisible(s.cursor+1, +1)
	active.Leave(domain.Forward)
	s.cursor = next
	s.policy.CursorMoved(s)
	s.lastBlock = nil
	if sub, ok := s.children[next].(*Section); ok {
		sub.descend(domain.Forward)
	}
	s.children[next].Enter()
	return nil
}

// MoveBackward returns to the previous visible candidate, delegating into the
// active nested section first. The backward direction carries no gate.
func (s *Section) MoveBackward() error {
	if !s.CanMoveBackward() {
		return domain.NewMoveError("backward", "no visible page behind")
	}
	active := s.children[s.cursor]
	if sub, ok := active.(*Section); ok && sub.CanMoveBackward() {
		return sub.MoveBackward()
	}
	if !active.AllowLeaving(domain.Backward) {
		return domain.NewMoveError("backward", "current page refuses to release focus")
	}
	prev := s.scanVisible(s.cursor-1, -1)
	active.Leave(domain.Backward)
	s.cursor = prev
	s.policy.CursorMoved(s)
	if sub, ok := s.children[prev].(*Section); ok {
		sub.descend(domain.Backward)
	}
	s.children[prev].Enter()
	return nil
}

// MoveToFirst jumps to the first visible child the policy permits and
// descends to its first visible node. A no-op under a policy without
// first/last shortcuts.
func (s *Section) MoveToFirst() error { return s.moveToEdge(domain.Forward) }

// MoveToLast is the mirror of MoveToFirst.
func (s *Section) MoveToLast() error { return s.moveToEdge(domain.Backward) }

func (s *Section) moveToEdge(dir domain.Direction) error {
	if !s.policy.FirstLastEnabled() || len(s.children) == 0 {
		return nil
	}
	active := s.children[s.cursor]
	if !active.AllowLeaving(domain.Jump) {
		return domain.NewMoveError("jump", "current page refuses to release focus")
	}
	start, step := 0, +1
	if dir == domain.Backward {
		start, step = len(s.children)-1, -1
	}
	target := -1
	for i := start; i >= 0 && i < len(s.children); i += step {
		if s.children[i].Visible() && s.policy.AllowedJumpTarget(s, i) {
			target = i
			break
		}
	}
	if target < 0 {
		return domain.NewMoveError("jump", "no visible page to jump to")
	}
	active.Leave(domain.Jump)
	s.cursor = target
	s.policy.CursorMoved(s)
	s.lastBlock = nil
	if sub, ok := s.children[target].(*Section); ok {
		sub.descend(dir)
	}
	s.children[target].Enter()
	return nil
}

// MoveToPosition jumps to the node addressed by path, a non-empty list of
// zero-based indices, most significant first. The whole path is validated
// before anything moves; a failed jump leaves the tree untouched.
func (s *Section) MoveToPosition(path []int) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	s.children[s.cursor].Leave(domain.Jump)
	s.applyPath(path)
	s.children[s.cursor].Enter()
	return nil
}

func (s *Section) checkPath(path []int) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}
	i := path[0]
	if i < 0 || i >= len(s.children) {
		return domain.NewMoveError("jump", fmt.Sprintf("position %d out of range", i))
	}
	if !s.policy.AllowedJumpTarget(s, i) {
		return domain.NewMoveError("jump", fmt.Sprintf("position %d is not a legal jump target", i))
	}
	target := s.children[i]
	if !target.Visible() {
		return domain.NewMoveError("jump", "target is not visible")
	}
	if sub, ok := target.(*Section); ok {
		if len(path) > 1 {
			return sub.checkPath(path[1:])
		}
		return nil
	}
	if len(path) > 1 {
		return fmt.Errorf("%w: path descends below a page", domain.ErrInvalidPath)
	}
	return nil
}

// applyPath sets the cursors along a validated path; the deepest addressed
// section descends to its first visible node.
func (s *Section) applyPath(path []int) {
	s.cursor = path[0]
	s.policy.CursorMoved(s)
	s.lastBlock = nil
	if sub, ok := s.children[s.cursor].(*Section); ok {
		if len(path) > 1 {
			sub.applyPath(path[1:])
		} else {
			sub.descend(domain.Forward)
		}
	}
}
