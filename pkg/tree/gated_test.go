package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/tree"
)

func TestGatedForwardClosesPages(t *testing.T) {
	first := tree.NewPage("First")
	second := tree.NewPage("Second")
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(first, second, tree.NewPage("Third")))
	sec.Init()

	require.NoError(t, sec.MoveForward())
	assert.True(t, first.Closed(), "leaving the head forward closes the page")
	assert.False(t, second.Closed())

	t.Run("closed pages drop writes", func(t *testing.T) {
		first.Set("late", "value")
		_, ok := first.Get("late")
		assert.False(t, ok)
	})
}

func TestGatedMaxReachedIsMonotone(t *testing.T) {
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(tree.NewPage("A"), tree.NewPage("B"), tree.NewPage("C")))
	sec.Init()

	require.NoError(t, sec.MoveForward())
	require.NoError(t, sec.MoveForward())
	assert.Equal(t, 2, sec.MaxReached())

	require.NoError(t, sec.MoveBackward())
	require.NoError(t, sec.MoveBackward())
	assert.Equal(t, 0, sec.Cursor())
	assert.Equal(t, 2, sec.MaxReached(), "the high-water mark never decreases")

	t.Run("revisiting explored ground skips the gate", func(t *testing.T) {
		require.NoError(t, sec.MoveForward())
		assert.Equal(t, 1, sec.Cursor())
	})
}

func TestGateRefusalCarriesHintAndLeavesTreeUntouched(t *testing.T) {
	ready := false
	held := tree.NewPage("Held", tree.WithClosingCheck(func(*tree.Page) (bool, string) {
		return ready, "please answer the question"
	}))
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(held, tree.NewPage("Next")))
	sec.Init()

	var moveErr *domain.MoveError
	err := sec.MoveForward()
	require.ErrorAs(t, err, &moveErr)
	assert.ErrorIs(t, err, domain.ErrIllegalMove)
	assert.Equal(t, []string{"please answer the question"}, moveErr.Hints)
	assert.Equal(t, 0, sec.Cursor())
	assert.Equal(t, 0, sec.MaxReached())
	assert.False(t, held.Closed(), "a refused gate closes nothing")
	require.NotNil(t, sec.LastBlock())
	assert.Equal(t, moveErr.Reason, sec.LastBlock().Reason)

	ready = true
	require.NoError(t, sec.MoveForward())
	assert.True(t, held.Closed())
	assert.Nil(t, sec.LastBlock(), "an accepted move clears the blocked state")
}

func TestGatedJumpLimitedToExploredTerritory(t *testing.T) {
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(tree.NewPage("A"), tree.NewPage("B"), tree.NewPage("C")))
	sec.Init()
	require.NoError(t, sec.MoveForward()) // maxReached = 1

	err := sec.MoveToPosition([]int{2})
	assert.ErrorIs(t, err, domain.ErrIllegalMove, "unexplored positions are not jump targets")

	require.NoError(t, sec.MoveToPosition([]int{0}))
	assert.Equal(t, 0, sec.Cursor())

	t.Run("jumplist hides unexplored targets", func(t *testing.T) {
		labeled := tree.NewGatedSection()
		require.NoError(t, labeled.Append(
			tree.NewPage("A", tree.WithJump("a")),
			tree.NewPage("B", tree.WithJump("b")),
		))
		labeled.Init()
		var labels []string
		for e := range labeled.Jumplist() {
			labels = append(labels, e.Label)
		}
		assert.Equal(t, []string{"a"}, labels)

		require.NoError(t, labeled.MoveForward())
		labels = labels[:0]
		for e := range labeled.Jumplist() {
			labels = append(labels, e.Label)
		}
		assert.Equal(t, []string{"a", "b"}, labels)
	})
}

func TestGatedLastStopsAtHighWaterMark(t *testing.T) {
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(tree.NewPage("A"), tree.NewPage("B"), tree.NewPage("C")))
	sec.Init()
	require.NoError(t, sec.MoveForward())
	require.NoError(t, sec.MoveBackward())

	require.NoError(t, sec.MoveToLast())
	assert.Equal(t, 1, sec.Cursor(), "last means furthest explored, not furthest existing")
}

func TestGatedHiddenFirstChildKeepsGateArmed(t *testing.T) {
	held := tree.NewPage("Held", tree.WithJump("held"), tree.WithClosingCheck(func(*tree.Page) (bool, string) {
		return false, "please answer first"
	}))
	sec := tree.NewGatedSection()
	require.NoError(t, sec.Append(
		tree.NewPage("Hidden", tree.WithHidden()),
		held,
		tree.NewPage("After"),
	))
	sec.Init()

	require.Equal(t, 1, sec.Cursor())
	assert.Equal(t, 1, sec.MaxReached(), "the landing position counts as explored")

	err := sec.MoveForward()
	assert.ErrorIs(t, err, domain.ErrIllegalMove, "the landing page's closing gate still fires")
	assert.False(t, held.Closed())
	assert.Equal(t, 1, sec.Cursor())

	t.Run("the active page is a jump target", func(t *testing.T) {
		var labels []string
		for e := range sec.Jumplist() {
			labels = append(labels, e.Label)
		}
		assert.Equal(t, []string{"held"}, labels)
		require.NoError(t, sec.MoveToPosition([]int{1}))
	})

	t.Run("entering a nested gated section lands explored", func(t *testing.T) {
		inner := tree.NewGatedSection()
		require.NoError(t, inner.Append(
			tree.NewPage("InnerHidden", tree.WithHidden()),
			tree.NewPage("InnerShown"),
		))
		root := tree.NewGatedSection()
		require.NoError(t, root.Append(tree.NewPage("First"), inner))
		root.Init()

		require.NoError(t, root.MoveForward())
		assert.Equal(t, []int{1, 1}, root.CurrentPath())
		assert.Equal(t, 1, inner.MaxReached())
	})
}

func TestGatedSubsectionGateCollectsLeafHints(t *testing.T) {
	q1 := tree.NewPage("Q1", tree.WithClosingCheck(func(*tree.Page) (bool, string) {
		return false, "answer question one"
	}))
	q2 := tree.NewPage("Q2", tree.WithClosingCheck(func(*tree.Page) (bool, string) {
		return false, "answer question two"
	}))
	inner := tree.NewSection()
	require.NoError(t, inner.Append(q1, q2))
	root := tree.NewGatedSection()
	require.NoError(t, root.Append(inner, tree.NewPage("After")))
	root.Init()

	require.NoError(t, root.MoveForward()) // within inner: gate not consulted yet
	assert.Equal(t, []int{0, 1}, root.CurrentPath())

	var moveErr *domain.MoveError
	err := root.MoveForward()
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, []string{"answer question one", "answer question two"}, moveErr.Hints)
	assert.Equal(t, []int{0, 1}, root.CurrentPath())
	assert.False(t, q1.Closed())
}

func TestGatedSubsectionClosesAllLeavesOnExit(t *testing.T) {
	q1 := tree.NewPage("Q1")
	q2 := tree.NewPage("Q2")
	inner := tree.NewSection()
	require.NoError(t, inner.Append(q1, q2))
	root := tree.NewGatedSection()
	require.NoError(t, root.Append(inner, tree.NewPage("After")))
	root.Init()

	require.NoError(t, root.MoveForward())
	require.NoError(t, root.MoveForward())
	assert.Equal(t, []int{1}, root.CurrentPath())
	assert.True(t, q1.Closed())
	assert.True(t, q2.Closed())
}
