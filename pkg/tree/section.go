package tree

import (
	"fmt"
	"math/rand/v2"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Section is an ordered container of nodes with a movement cursor. The cursor
// always addresses a valid child once the section is non-empty; which
// transitions are legal is decided by the injected Policy.
type Section struct {
	base

	children []Node
	cursor   int

	// maxReached is the furthest cursor position ever reached. Only the gated
	// and strict policies consult it; it never decreases.
	maxReached int

	policy Policy

	// lastBlock records the most recent gate refusal so renderers can show an
	// explicit blocked message without the tree having been mutated.
	lastBlock *domain.MoveError
}

// SectionOption configures a Section at construction time.
type SectionOption func(*Section)

// WithSectionTag sets the explicit tag.
func WithSectionTag(tag string) SectionOption {
	return func(s *Section) { _ = s.SetTag(tag) }
}

// WithSectionUID overrides the generated uid.
func WithSectionUID(uid string) SectionOption {
	return func(s *Section) { s.uid = uid }
}

// WithSectionJump marks the section as a jump target with the given label.
func WithSectionJump(label string) SectionOption {
	return func(s *Section) {
		s.jumpable = true
		s.jumpLabel = label
	}
}

// WithSectionVisibleIf installs the visibility predicate.
func WithSectionVisibleIf(pred func() bool) SectionOption {
	return func(s *Section) { s.visibleIf = pred }
}

// WithSectionHidden constructs the section with its visibility flag off.
func WithSectionHidden() SectionOption {
	return func(s *Section) { s.visible = false }
}

// WithPolicy overrides the movement policy.
func WithPolicy(p Policy) SectionOption {
	return func(s *Section) { s.policy = p }
}

// NewSection creates a section with free movement among visible children.
func NewSection(opts ...SectionOption) *Section {
	s := &Section{
		base:   newBase(),
		policy: PlainPolicy{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGatedSection creates a section whose head stays open only while
// unexplored: forward movement past the high-water mark must pass the closing
// gate, and jump targets are limited to explored territory.
func NewGatedSection(opts ...SectionOption) *Section {
	return NewSection(append([]SectionOption{WithPolicy(GatedPolicy{})}, opts...)...)
}

// NewStrictSection creates a gated section that additionally confines
// movement to the currently active branch.
func NewStrictSection(opts ...SectionOption) *Section {
	return NewSection(append([]SectionOption{WithPolicy(StrictPolicy{})}, opts...)...)
}

// Append adds children in order. Children without an explicit tag are tagged
// with their 1-based position at the moment of appending; reordering later
// does not retag. An explicit tag that collides with a sibling's fails.
func (s *Section) Append(children ...Node) error {
	for _, child := range children {
		if tag := child.Tag(); tag != "" && child.tagExplicit() {
			for _, sibling := range s.children {
				if sibling.Tag() == tag {
					return fmt.Errorf("append %q: duplicate sibling tag", tag)
				}
			}
		}
		s.children = append(s.children, child)
		if child.Tag() == "" {
			child.regenerateTag(len(s.children))
		}
		child.setParent(s)
	}
	return nil
}

// Children returns the ordered child list. The returned slice must not be
// modified.
func (s *Section) Children() []Node { return s.children }

// Cursor returns the index of the currently active child.
func (s *Section) Cursor() int { return s.cursor }

// MaxReached returns the high-water mark of the cursor.
func (s *Section) MaxReached() int { return s.maxReached }

// LastBlock returns the gate refusal recorded by the most recent blocked
// forward move, or nil. It is cleared by the next accepted move.
func (s *Section) LastBlock() *domain.MoveError { return s.lastBlock }

// Visible reports the section's effective visibility: its own flag and
// predicate, and at least one visible child.
func (s *Section) Visible() bool {
	if !s.base.Visible() {
		return false
	}
	for _, child := range s.children {
		if child.Visible() {
			return true
		}
	}
	return false
}

// ActiveChild returns the child at the cursor, nil for an empty section.
func (s *Section) ActiveChild() Node {
	if len(s.children) == 0 {
		return nil
	}
	return s.children[s.cursor]
}

// CurrentLeaf recurses to the deepest active page, nil if the section (or the
// active branch) is empty.
func (s *Section) CurrentLeaf() *Page {
	switch active := s.ActiveChild().(type) {
	case *Page:
		return active
	case *Section:
		return active.CurrentLeaf()
	default:
		return nil
	}
}

// CurrentPath returns the zero-based index path from this section to the
// current leaf.
func (s *Section) CurrentPath() []int {
	if len(s.children) == 0 {
		return nil
	}
	path := []int{s.cursor}
	if sub, ok := s.children[s.cursor].(*Section); ok {
		path = append(path, sub.CurrentPath()...)
	}
	return path
}

// VisibleLeaves collects every currently visible page at or below this
// section, in document order.
func (s *Section) VisibleLeaves() []*Page {
	var leaves []*Page
	for _, child := range s.children {
		if !child.Visible() {
			continue
		}
		switch c := child.(type) {
		case *Page:
			leaves = append(leaves, c)
		case *Section:
			leaves = append(leaves, c.VisibleLeaves()...)
		}
	}
	return leaves
}

// FindUID searches the subtree for the node with the given uid. The search
// reports found-or-not explicitly; absence is not an error condition.
func (s *Section) FindUID(uid string) (Node, bool) {
	if s.uid == uid {
		return s, true
	}
	for _, child := range s.children {
		if child.UID() == uid {
			return child, true
		}
		if sub, ok := child.(*Section); ok {
			if n, ok := sub.FindUID(uid); ok {
				return n, true
			}
		}
	}
	return nil, false
}

// FindTag searches the subtree for the first node carrying the given tag.
func (s *Section) FindTag(tag string) (Node, bool) {
	if s.tag == tag {
		return s, true
	}
	for _, child := range s.children {
		if child.Tag() == tag {
			return child, true
		}
		if sub, ok := child.(*Section); ok {
			if n, ok := sub.FindTag(tag); ok {
				return n, true
			}
		}
	}
	return nil, false
}

// Randomize regenerates auto-assigned tags from the current order, then
// shuffles the children. With deep, nested sections are shuffled as well.
// Explicit tags are preserved.
func (s *Section) Randomize(deep bool) {
	for i, child := range s.children {
		child.regenerateTag(i + 1)
	}
	rand.Shuffle(len(s.children), func(i, j int) {
		s.children[i], s.children[j] = s.children[j], s.children[i]
	})
	if deep {
		for _, child := range s.children {
			if sub, ok := child.(*Section); ok {
				sub.Randomize(true)
			}
		}
	}
}

// AllowLeaving probes whether the active branch releases focus. For forward
// movement this mirrors the closing gate, so callers get a consistent answer
// without state being mutated.
func (s *Section) AllowLeaving(dir domain.Direction) bool {
	active := s.ActiveChild()
	if active == nil {
		return true
	}
	if dir == domain.Forward {
		if err := s.policy.AdvancePastGate(s, false); err != nil {
			return false
		}
	}
	return active.AllowLeaving(dir)
}

// Enter cascades to the active child.
func (s *Section) Enter() {
	if active := s.ActiveChild(); active != nil {
		active.Enter()
	}
}

// Leave cascades to the active child.
func (s *Section) Leave(dir domain.Direction) {
	if active := s.ActiveChild(); active != nil {
		active.Leave(dir)
	}
}

// Data returns the section's snapshot contribution: identity plus the
// recursive subtree data.
func (s *Section) Data() domain.Snapshot {
	subtree := make([]domain.Snapshot, 0, len(s.children))
	for _, child := range s.children {
		subtree = append(subtree, child.Data())
	}
	return domain.Snapshot{
		domain.KeyTag:     s.tag,
		domain.KeyUID:     s.uid,
		domain.KeySubtree: subtree,
	}
}

// Init positions the cursor on the first visible descendant and runs the
// enter hooks. Sessions call it once when a tree becomes active.
func (s *Section) Init() {
	s.descend(domain.Forward)
	s.Enter()
}

// scanVisible returns the first visible child index walking from start in the
// given step direction, or -1.
func (s *Section) scanVisible(start, step int) int {
	for i := start; i >= 0 && i < len(s.children); i += step {
		if s.children[i].Visible() {
			return i
		}
	}
	return -1
}

// descend initializes the cursor to the first (Forward) or last (Backward)
// visible descendant. An all-invisible section keeps the cursor at the head;
// the invariant permits a cursor forced there before visibility is evaluated.
// The policy is notified of the landing position, so a gated section whose
// head children are invisible still counts the landing page as explored.
func (s *Section) descend(dir domain.Direction) {
	if len(s.children) == 0 {
		return
	}
	i := 0
	if dir == domain.Backward {
		i = s.scanVisible(len(s.children)-1, -1)
	} else {
		i = s.scanVisible(0, +1)
	}
	if i < 0 {
		i = 0
	}
	s.cursor = i
	s.policy.CursorMoved(s)
	if sub, ok := s.children[i].(*Section); ok {
		sub.descend(dir)
	}
}
