package tree

import "iter"

// JumpEntry is one directly navigable target: the zero-based index path from
// the section the jumplist was requested on, the user-facing label, and the
// node itself. The owning section's own entry carries an empty path.
type JumpEntry struct {
	Path  []int
	Label string
	Node  Node
}

// Jumplist yields every jumpable node at or below this section in depth-first
// order, the section's own entry first. The sequence is lazy and restartable;
// entries the section's policy rules out (unexplored territory under a gated
// policy, foreign branches under a strict one) are skipped together with
// their subtrees.
func (s *Section) Jumplist() iter.Seq[JumpEntry] {
	return func(yield func(JumpEntry) bool) {
		if s.jumpable {
			if !yield(JumpEntry{Path: []int{}, Label: s.jumpLabel, Node: s}) {
				return
			}
		}
		for i, child := range s.children {
			if !s.policy.AllowedJumpTarget(s, i) {
				continue
			}
			switch c := child.(type) {
			case *Section:
				for entry := range c.Jumplist() {
					entry.Path = append([]int{i}, entry.Path...)
					if !yield(entry) {
						return
					}
				}
			case *Page:
				if c.Jumpable() {
					if !yield(JumpEntry{Path: []int{i}, Label: c.JumpLabel(), Node: c}) {
						return
					}
				}
			}
		}
	}
}
