package tree

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Node is the smallest addressable unit of the experiment tree: a *Page leaf
// or a *Section container. Both embed the same base attributes.
type Node interface {
	// Tag is the identifier of the node among its siblings. Explicitly set at
	// most once; children appended without a tag receive their 1-based
	// position as tag.
	Tag() string
	// SetTag sets the tag explicitly. A second explicit set fails with
	// domain.ErrTagAlreadySet.
	SetTag(tag string) error
	// UID is an opaque unique id, generated when not supplied.
	UID() string

	Jumpable() bool
	JumpLabel() string

	// Visible reports effective visibility: the node's own flag AND its
	// visibility predicate. A Section is additionally only visible while at
	// least one of its children is.
	Visible() bool
	// Parent is the non-owning back-reference to the containing Section, nil
	// for the root.
	Parent() *Section

	// AllowLeaving reports whether the node releases focus in the given
	// direction. It must not mutate state.
	AllowLeaving(dir domain.Direction) bool
	// Enter and Leave run the node's lifecycle hooks when the cursor arrives
	// at or departs from it.
	Enter()
	Leave(dir domain.Direction)

	// Data returns the node's contribution to the session snapshot.
	Data() domain.Snapshot

	setParent(p *Section)
	regenerateTag(position int)
	tagExplicit() bool
}

// base carries the attributes shared by pages and sections.
type base struct {
	tag      string
	tagFixed bool // set explicitly; survives Randomize
	uid      string

	jumpable  bool
	jumpLabel string

	visible   bool
	visibleIf func() bool // predicate over session state, may be nil

	parent *Section
}

func newBase() base {
	return base{
		uid:     uuid.NewString(),
		visible: true,
	}
}

func (b *base) Tag() string { return b.tag }

func (b *base) SetTag(tag string) error {
	if b.tagFixed {
		return domain.ErrTagAlreadySet
	}
	b.tag = tag
	b.tagFixed = true
	return nil
}

func (b *base) UID() string       { return b.uid }
func (b *base) Jumpable() bool    { return b.jumpable }
func (b *base) JumpLabel() string { return b.jumpLabel }
func (b *base) Parent() *Section  { return b.parent }

// Visible evaluates the flag and the predicate. Sections layer the
// any-visible-child rule on top of this.
func (b *base) Visible() bool {
	if !b.visible {
		return false
	}
	if b.visibleIf != nil {
		return b.visibleIf()
	}
	return true
}

// SetVisible flips the plain visibility flag.
func (b *base) SetVisible(v bool) { b.visible = v }

func (b *base) setParent(p *Section) { b.parent = p }
func (b *base) tagExplicit() bool    { return b.tagFixed }

// regenerateTag refreshes an auto-assigned tag from the node's 1-based
// position. Explicit tags are never touched.
func (b *base) regenerateTag(position int) {
	if b.tagFixed {
		return
	}
	b.tag = strconv.Itoa(position)
}
