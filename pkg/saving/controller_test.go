package saving

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/ports"
)

// stubAgent records every accepted snapshot; with err set it fails every
// write.
type stubAgent struct {
	name  string
	level domain.Level
	err   error

	mu    sync.Mutex
	saves []domain.Snapshot
}

var _ ports.StorageAgent = (*stubAgent)(nil)

func (a *stubAgent) Name() string                  { return a.name }
func (a *stubAgent) ActivationLevel() domain.Level { return a.level }

func (a *stubAgent) Save(_ context.Context, snap domain.Snapshot) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saves = append(a.saves, snap)
	return nil
}

func (a *stubAgent) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saves)
}

func (a *stubAgent) last() domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.saves) == 0 {
		return nil
	}
	return a.saves[len(a.saves)-1]
}

func spec(a *stubAgent) AgentSpec {
	return AgentSpec{Name: a.name, Build: func() (ports.StorageAgent, error) { return a, nil }}
}

func failingSpec(name string) AgentSpec {
	return AgentSpec{Name: name, Build: func() (ports.StorageAgent, error) {
		return nil, errors.New("backend unreachable")
	}}
}

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := NewController(cfg)
	require.NoError(t, err)
	return c
}

func snapshotFor(session string, v int) domain.Snapshot {
	return domain.Snapshot{domain.KeySessionID: session, "v": v}
}

func TestJobQueueSyncBeforeAsync(t *testing.T) {
	var q jobQueue
	push := func(id string, priority int, seq uint64) {
		heap.Push(&q, &Job{SessionID: id, priority: priority, seq: seq})
	}
	push("a1", priorityAsync, 1)
	push("s1", prioritySync, 2)
	push("a2", priorityAsync, 3)
	push("s2", prioritySync, 4)

	var order []string
	for q.Len() > 0 {
		order = append(order, heap.Pop(&q).(*Job).SessionID)
	}
	assert.Equal(t, []string{"s1", "s2", "a1", "a2"}, order,
		"synchronous jobs drain first, each priority in enqueue order")
}

func TestProcessSkipsStaleSnapshots(t *testing.T) {
	primary := &stubAgent{name: "primary", level: domain.LevelRoutine}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(primary)}})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 2), Level: domain.LevelRoutine, Timestamp: base.Add(time.Second)})
	c.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 1), Level: domain.LevelRoutine, Timestamp: base})

	assert.Equal(t, 1, primary.count(), "an older snapshot never overwrites a newer one")
	assert.Equal(t, 2, primary.last()["v"])
	assert.Equal(t, base.Add(time.Second), c.LastCommitted("s1"))

	t.Run("sessions are independent", func(t *testing.T) {
		c.process(&Job{SessionID: "s2", Snapshot: snapshotFor("s2", 1), Level: domain.LevelRoutine, Timestamp: base})
		assert.Equal(t, 2, primary.count())
	})
}

func TestProcessFiltersByActivationLevel(t *testing.T) {
	checkpointOnly := &stubAgent{name: "checkpoint", level: domain.LevelCheckpoint}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(checkpointOnly)}})

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 1), Level: domain.LevelRoutine, Timestamp: ts})
	assert.Equal(t, 0, checkpointOnly.count(), "a routine job does not reach a checkpoint-level agent")
	assert.Equal(t, 0, failure.count(), "skipping is not failing")
	assert.True(t, c.LastCommitted("s1").IsZero(), "a skipped job commits nothing")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.Jobs.WithLabelValues(outcomeSkipped)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.metrics.Jobs.WithLabelValues(outcomeCommitted)))

	c.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 2), Level: domain.LevelFinal, Timestamp: ts.Add(time.Second)})
	assert.Equal(t, 1, checkpointOnly.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.Jobs.WithLabelValues(outcomeCommitted)))
}

func TestFailureAgentRescuesFailedWrites(t *testing.T) {
	broken := &stubAgent{name: "broken", level: domain.LevelRoutine, err: errors.New("disk full")}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(broken)}})

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 7), Level: domain.LevelRoutine, Timestamp: ts})

	require.Equal(t, 1, failure.count(), "a failed primary write routes the snapshot to the failure agent")
	assert.Equal(t, 7, failure.last()["v"])
	assert.Equal(t, ts, c.LastCommitted("s1"), "a rescued snapshot still counts as committed")

	t.Run("a synchronous enqueue completes despite the failure", func(t *testing.T) {
		c.Start()
		defer c.Close()
		c.Enqueue("s2", snapshotFor("s2", 8), domain.LevelRoutine, true)
		assert.Equal(t, 2, failure.count())
	})

	t.Run("healthy writes bypass the failure agent", func(t *testing.T) {
		before := failure.count()
		healthy := &stubAgent{name: "healthy", level: domain.LevelRoutine}
		c2 := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(healthy)}})
		c2.process(&Job{SessionID: "s1", Snapshot: snapshotFor("s1", 1), Level: domain.LevelRoutine, Timestamp: ts})
		assert.Equal(t, before, failure.count())
	})
}

func TestTierFallback(t *testing.T) {
	t.Run("fallback covers a primary construction failure", func(t *testing.T) {
		fallback := &stubAgent{name: "fallback", level: domain.LevelRoutine}
		failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
		c := newTestController(t, Config{
			Failure:  spec(failure),
			Primary:  []AgentSpec{failingSpec("redis")},
			Fallback: []AgentSpec{spec(fallback)},
		})
		require.Len(t, c.agents, 1)
		assert.Equal(t, "fallback", c.agents[0].Name())
	})

	t.Run("a healthy tier shadows the tiers below", func(t *testing.T) {
		primary := &stubAgent{name: "primary", level: domain.LevelRoutine}
		fallback := &stubAgent{name: "fallback", level: domain.LevelRoutine}
		failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
		c := newTestController(t, Config{
			Failure:  spec(failure),
			Primary:  []AgentSpec{spec(primary)},
			Fallback: []AgentSpec{spec(fallback)},
		})
		require.Len(t, c.agents, 1)
		assert.Equal(t, "primary", c.agents[0].Name())
	})

	t.Run("assured construction failure is fatal", func(t *testing.T) {
		failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
		broken := failingSpec("assured-redis")
		broken.Assured = true
		_, err := NewController(Config{Failure: spec(failure), Primary: []AgentSpec{broken}})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("missing failure agent is fatal", func(t *testing.T) {
		_, err := NewController(Config{})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("no active agent is fatal unless disabled", func(t *testing.T) {
		failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
		_, err := NewController(Config{Failure: spec(failure)})
		assert.ErrorIs(t, err, domain.ErrConfiguration)

		_, err = NewController(Config{Failure: spec(failure), Disabled: true})
		assert.NoError(t, err)
	})
}

func TestControllerLifecycle(t *testing.T) {
	primary := &stubAgent{name: "primary", level: domain.LevelRoutine}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(primary)}})
	c.Start()

	c.Enqueue("s1", snapshotFor("s1", 1), domain.LevelRoutine, false)
	c.Enqueue("s1", snapshotFor("s1", 2), domain.LevelRoutine, false)
	c.Enqueue("s1", snapshotFor("s1", 3), domain.LevelFinal, true)

	c.DrainAndWait()
	c.Close()

	assert.Equal(t, 3, primary.last()["v"], "the newest snapshot wins")
	assert.Equal(t, 0, failure.count())
	assert.False(t, c.LastCommitted("s1").IsZero())
	assert.True(t, c.LastCommitted("s2").IsZero())

	t.Run("enqueue after close is dropped", func(t *testing.T) {
		before := primary.count()
		c.Enqueue("s1", snapshotFor("s1", 9), domain.LevelFinal, true)
		assert.Equal(t, before, primary.count())
	})
}

func TestSynchronousEnqueueBeforeStartPanics(t *testing.T) {
	primary := &stubAgent{name: "primary", level: domain.LevelRoutine}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(primary)}})

	require.Panics(t, func() {
		c.Enqueue("s1", snapshotFor("s1", 1), domain.LevelRoutine, true)
	}, "with no worker the ack would never fire")

	t.Run("asynchronous jobs may queue before Start", func(t *testing.T) {
		c.Enqueue("s1", snapshotFor("s1", 2), domain.LevelRoutine, false)
		c.Start()
		defer c.Close()
		c.DrainAndWait()
		assert.Equal(t, 2, primary.last()["v"])
	})
}

func TestEnqueueClonesTheSnapshot(t *testing.T) {
	primary := &stubAgent{name: "primary", level: domain.LevelRoutine}
	failure := &stubAgent{name: "failure", level: domain.LevelRoutine}
	c := newTestController(t, Config{Failure: spec(failure), Primary: []AgentSpec{spec(primary)}})
	c.Start()
	defer c.Close()

	snap := snapshotFor("s1", 1)
	c.Enqueue("s1", snap, domain.LevelRoutine, true)
	snap["v"] = 99

	assert.Equal(t, 1, primary.last()["v"], "later mutation of the caller's map does not leak into the job")
}
