package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ctreffe/alfred/pkg/domain"
)

func TestMinimumDisplayTime(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	min := NewMinimumDisplayTime(10 * time.Second)
	min.now = func() time.Time { return clock }

	page := NewPage("Timed", WithBehaviors(min))

	t.Run("refuses before first show", func(t *testing.T) {
		allowed, hint := page.AllowClosing()
		assert.False(t, allowed)
		assert.NotEmpty(t, hint)
	})

	page.Enter()

	t.Run("refuses while time remains", func(t *testing.T) {
		clock = clock.Add(4 * time.Second)
		allowed, hint := page.AllowClosing()
		assert.False(t, allowed)
		assert.Contains(t, hint, "6s")
	})

	t.Run("allows once elapsed", func(t *testing.T) {
		clock = clock.Add(7 * time.Second)
		allowed, hint := page.AllowClosing()
		assert.True(t, allowed)
		assert.Empty(t, hint)
	})

	t.Run("the clock starts at the first show only", func(t *testing.T) {
		page.Leave(domain.Backward)
		page.Enter()
		allowed, _ := page.AllowClosing()
		assert.True(t, allowed, "re-entering does not restart the countdown")
	})
}
