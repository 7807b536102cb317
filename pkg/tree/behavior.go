package tree

import (
	"fmt"
	"time"
)

// Behavior is a composable piece of page lifecycle logic. A page holds an
// ordered list of behaviors and invokes them at defined points; behaviors
// never reach into each other.
type Behavior interface {
	OnShow(p *Page)
	OnHide(p *Page)
	OnClose(p *Page)
}

// ClosingVeto is implemented by behaviors that can hold a page open. The hint
// is shown to the participant as corrective feedback.
type ClosingVeto interface {
	AllowClosing(p *Page) (bool, string)
}

// NopBehavior implements Behavior with no-ops; embed it to implement only a
// subset of the lifecycle.
type NopBehavior struct{}

func (NopBehavior) OnShow(*Page)  {}
func (NopBehavior) OnHide(*Page)  {}
func (NopBehavior) OnClose(*Page) {}

// MinimumDisplayTime holds a page open until it has been on screen for a
// minimum duration, counted from the first show.
type MinimumDisplayTime struct {
	NopBehavior
	Duration time.Duration

	now     func() time.Time // test seam
	shownAt time.Time
}

// NewMinimumDisplayTime creates the behavior.
func NewMinimumDisplayTime(d time.Duration) *MinimumDisplayTime {
	return &MinimumDisplayTime{Duration: d, now: time.Now}
}

func (m *MinimumDisplayTime) OnShow(*Page) {
	if m.shownAt.IsZero() {
		m.shownAt = m.now()
	}
}

func (m *MinimumDisplayTime) AllowClosing(*Page) (bool, string) {
	if m.shownAt.IsZero() {
		return false, "this page has not been shown yet"
	}
	remaining := m.Duration - m.now().Sub(m.shownAt)
	if remaining > 0 {
		return false, fmt.Sprintf("please stay on this page for another %s", remaining.Round(time.Second))
	}
	return true, ""
}

// HideAfterShow removes the page from the flow once the participant has moved
// past it: after the first hide, the page's visibility flag is cleared so
// backward movement skips it.
type HideAfterShow struct {
	NopBehavior
}

func (HideAfterShow) OnHide(p *Page) {
	if p.Shown() {
		p.SetVisible(false)
	}
}
