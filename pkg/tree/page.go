package tree

import (
	"maps"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Page is a leaf of the experiment tree: one screen shown to the participant.
// Rendering and input widgets live outside the core; a Page exposes the
// lifecycle and validation surface the navigation engine needs, plus a data
// map that is merged into the session snapshot.
type Page struct {
	base

	title    string
	subtitle string
	body     string // markdown, rendered by the presentation layer

	data   map[string]any
	closed bool
	shown  bool

	behaviors []Behavior

	closingCheck func(p *Page) (bool, string)
	leavingCheck func(p *Page, dir domain.Direction) bool
	onEnter      func(p *Page)
	onLeave      func(p *Page, dir domain.Direction)
}

// PageOption configures a Page at construction time.
type PageOption func(*Page)

// WithTag sets the explicit tag.
func WithTag(tag string) PageOption {
	return func(p *Page) { _ = p.SetTag(tag) }
}

// WithUID overrides the generated uid.
func WithUID(uid string) PageOption {
	return func(p *Page) { p.uid = uid }
}

// WithJump marks the page as a jump target with the given label.
func WithJump(label string) PageOption {
	return func(p *Page) {
		p.jumpable = true
		p.jumpLabel = label
	}
}

// WithSubtitle sets the subtitle shown under the title.
func WithSubtitle(subtitle string) PageOption {
	return func(p *Page) { p.subtitle = subtitle }
}

// WithBody sets the markdown body.
func WithBody(body string) PageOption {
	return func(p *Page) { p.body = body }
}

// WithVisibleIf installs the visibility predicate. Effective visibility is the
// flag AND this predicate.
func WithVisibleIf(pred func() bool) PageOption {
	return func(p *Page) { p.visibleIf = pred }
}

// WithHidden constructs the page with its visibility flag off.
func WithHidden() PageOption {
	return func(p *Page) { p.visible = false }
}

// WithClosingCheck installs the gate consulted before the page is closed. A
// refusal returns false plus a corrective hint for the participant.
func WithClosingCheck(check func(p *Page) (bool, string)) PageOption {
	return func(p *Page) { p.closingCheck = check }
}

// WithLeavingCheck installs the check consulted before focus is released.
func WithLeavingCheck(check func(p *Page, dir domain.Direction) bool) PageOption {
	return func(p *Page) { p.leavingCheck = check }
}

// WithBehaviors appends lifecycle behaviors, invoked in order.
func WithBehaviors(behaviors ...Behavior) PageOption {
	return func(p *Page) { p.behaviors = append(p.behaviors, behaviors...) }
}

// WithOnEnter installs a hook run when the cursor arrives at the page.
func WithOnEnter(fn func(p *Page)) PageOption {
	return func(p *Page) { p.onEnter = fn }
}

// WithOnLeave installs a hook run when the cursor departs from the page.
func WithOnLeave(fn func(p *Page, dir domain.Direction)) PageOption {
	return func(p *Page) { p.onLeave = fn }
}

// NewPage creates a page with the given title.
func NewPage(title string, opts ...PageOption) *Page {
	p := &Page{
		base:  newBase(),
		title: title,
		data:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Page) Title() string    { return p.title }
func (p *Page) Subtitle() string { return p.subtitle }
func (p *Page) Body() string     { return p.body }
func (p *Page) Closed() bool     { return p.closed }
func (p *Page) Shown() bool      { return p.shown }

// Set records a data value. Writes on a closed page are dropped: closing
// permanently disables edits.
func (p *Page) Set(key string, value any) {
	if p.closed {
		return
	}
	p.data[key] = value
}

// Get reads a data value.
func (p *Page) Get(key string) (any, bool) {
	v, ok := p.data[key]
	return v, ok
}

// AllowClosing reports whether the page may be closed, and a corrective hint
// when it may not. Already-closed pages always allow it.
func (p *Page) AllowClosing() (bool, string) {
	if p.closed {
		return true, ""
	}
	for _, b := range p.behaviors {
		if veto, ok := b.(ClosingVeto); ok {
			if allowed, hint := veto.AllowClosing(p); !allowed {
				return false, hint
			}
		}
	}
	if p.closingCheck != nil {
		return p.closingCheck(p)
	}
	return true, ""
}

// Close marks the page permanently closed. Idempotent; a second call does
// nothing and never alters the page's data.
func (p *Page) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for _, b := range p.behaviors {
		b.OnClose(p)
	}
}

// AllowLeaving consults the leaving check; pages release focus by default.
func (p *Page) AllowLeaving(dir domain.Direction) bool {
	if p.leavingCheck != nil {
		return p.leavingCheck(p, dir)
	}
	return true
}

// Enter runs the behaviors' OnShow hooks and the page's own enter hook.
func (p *Page) Enter() {
	p.shown = true
	for _, b := range p.behaviors {
		b.OnShow(p)
	}
	if p.onEnter != nil {
		p.onEnter(p)
	}
}

// Leave runs the behaviors' OnHide hooks and the page's own leave hook.
func (p *Page) Leave(dir domain.Direction) {
	for _, b := range p.behaviors {
		b.OnHide(p)
	}
	if p.onLeave != nil {
		p.onLeave(p, dir)
	}
}

// Data returns the page's snapshot contribution: identity plus the data map
// merged at the same level.
func (p *Page) Data() domain.Snapshot {
	d := domain.Snapshot{
		domain.KeyTag: p.tag,
		domain.KeyUID: p.uid,
		"closed":      p.closed,
		"shown":       p.shown,
	}
	maps.Copy(d, p.data)
	return d
}
