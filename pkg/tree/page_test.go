package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/tree"
)

func TestPageCloseIsIdempotent(t *testing.T) {
	closes := 0
	counter := countingBehavior{onClose: func() { closes++ }}
	page := tree.NewPage("P", tree.WithBehaviors(counter))

	page.Set("answer", "yes")
	page.Close()
	page.Close()

	assert.True(t, page.Closed())
	assert.Equal(t, 1, closes, "a second close does nothing")
	v, ok := page.Get("answer")
	require.True(t, ok)
	assert.Equal(t, "yes", v, "closing never alters recorded data")
}

func TestPageAllowClosing(t *testing.T) {
	t.Run("default allows", func(t *testing.T) {
		allowed, hint := tree.NewPage("P").AllowClosing()
		assert.True(t, allowed)
		assert.Empty(t, hint)
	})

	t.Run("closing check refuses with hint", func(t *testing.T) {
		page := tree.NewPage("P", tree.WithClosingCheck(func(*tree.Page) (bool, string) {
			return false, "missing input"
		}))
		allowed, hint := page.AllowClosing()
		assert.False(t, allowed)
		assert.Equal(t, "missing input", hint)
	})

	t.Run("closed page always allows", func(t *testing.T) {
		page := tree.NewPage("P", tree.WithClosingCheck(func(*tree.Page) (bool, string) {
			return false, "never"
		}))
		page.Close()
		allowed, _ := page.AllowClosing()
		assert.True(t, allowed)
	})
}

func TestPageDataMergesRecordedValues(t *testing.T) {
	page := tree.NewPage("P", tree.WithTag("consent"))
	page.Set("agreed", true)

	data := page.Data()
	assert.Equal(t, "consent", data[domain.KeyTag])
	assert.Equal(t, page.UID(), data[domain.KeyUID])
	assert.Equal(t, true, data["agreed"])
	assert.Equal(t, false, data["closed"])
	assert.Equal(t, false, data["shown"])
}

func TestHideAfterShow(t *testing.T) {
	sec := tree.NewSection()
	once := tree.NewPage("Once", tree.WithBehaviors(tree.HideAfterShow{}))
	require.NoError(t, sec.Append(once, tree.NewPage("Next")))
	sec.Init()

	assert.True(t, once.Visible())
	require.NoError(t, sec.MoveForward())
	assert.False(t, once.Visible(), "a shown page disappears once left")
	assert.False(t, sec.CanMoveBackward())
}

// countingBehavior records lifecycle calls for assertions.
type countingBehavior struct {
	tree.NopBehavior
	onClose func()
}

func (c countingBehavior) OnClose(*tree.Page) {
	if c.onClose != nil {
		c.onClose()
	}
}
