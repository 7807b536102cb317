// Package saving owns the fault-tolerant snapshot persistence pipeline: a
// process-wide priority queue of snapshot jobs, a background worker that
// drains it, and an ordered set of storage agents with a fixed local failure
// agent behind them. Persistence failures never reach the participant; the
// pipeline's one promise to the navigation layer is that enqueueing never
// corrupts or blocks the tree.
package saving

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ctreffe/alfred/internal/logging"
	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/ports"
)

// AgentSpec describes how to construct one storage agent. Construction runs
// during controller setup so backend misconfiguration surfaces before the
// first participant, not on the first save.
type AgentSpec struct {
	// Name identifies the agent in setup logs.
	Name string
	// Assured makes a construction failure fatal instead of log-and-skip.
	Assured bool
	// Build constructs the agent.
	Build func() (ports.StorageAgent, error)
}

// Config wires the agent tiers. Fallback tiers are only consulted when an
// agent of the tier above failed at construction time.
type Config struct {
	// Failure is the fixed local agent invoked whenever a primary write
	// fails. Its construction failure aborts session setup.
	Failure AgentSpec
	// Primary agents serve every job whose level reaches their activation
	// level.
	Primary []AgentSpec
	// Fallback and SecondFallback are consulted tier by tier after
	// construction failures.
	Fallback       []AgentSpec
	SecondFallback []AgentSpec
	// Disabled permits an empty active agent list.
	Disabled bool
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics configures the controller's metric collectors.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns the snapshot queue and its background worker. One
// controller serves all sessions of the process; a controller-wide mutex
// serializes the check-timestamp-then-write sequence so two snapshots of the
// same session can never interleave their agent writes.
type Controller struct {
	logger  *slog.Logger
	metrics *Metrics

	agents  []ports.StorageAgent
	failure ports.StorageAgent

	mu     sync.Mutex
	cond   *sync.Cond
	queue  jobQueue
	seq    uint64
	closed bool

	writeMu     sync.Mutex
	lastWritten map[string]time.Time

	pending sync.WaitGroup
	worker  sync.WaitGroup
	started bool
}

// NewController builds the agent set per the tier policy and returns a
// controller ready to Start. The failure agent must construct; an "assured"
// agent's construction failure is fatal; any other failure is logged and the
// next tier is consulted. Ending up with no active agent while persistence is
// enabled is a fatal configuration error.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	c := &Controller{
		logger:      logging.NewNop(),
		lastWritten: make(map[string]time.Time),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}

	if cfg.Failure.Build == nil {
		return nil, fmt.Errorf("%w: no failure agent configured", domain.ErrConfiguration)
	}
	failure, err := cfg.Failure.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: failure agent %q: %v", domain.ErrConfiguration, cfg.Failure.Name, err)
	}
	c.failure = failure

	tiers := [][]AgentSpec{cfg.Primary, cfg.Fallback, cfg.SecondFallback}
	for _, tier := range tiers {
		agents, failed, err := c.buildTier(tier)
		if err != nil {
			return nil, err
		}
		c.agents = append(c.agents, agents...)
		if !failed {
			// Lower tiers exist only to cover construction failures above.
			break
		}
	}
	if len(c.agents) == 0 && !cfg.Disabled {
		return nil, fmt.Errorf("%w: no storage agent could be constructed", domain.ErrConfiguration)
	}
	return c, nil
}

func (c *Controller) buildTier(tier []AgentSpec) ([]ports.StorageAgent, bool, error) {
	var agents []ports.StorageAgent
	anyFailed := false
	for _, spec := range tier {
		agent, err := spec.Build()
		if err != nil {
			if spec.Assured {
				return nil, false, fmt.Errorf("%w: assured agent %q: %v", domain.ErrConfiguration, spec.Name, err)
			}
			c.logger.Warn("storage agent construction failed, falling back", "agent", spec.Name, "err", err)
			anyFailed = true
			continue
		}
		agents = append(agents, agent)
	}
	return agents, anyFailed, nil
}

// Start launches the background worker. The lifecycle is explicit: nothing
// runs before Start, and Close drains and stops the worker.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.worker.Add(1)
	go c.run()
}

// Enqueue stamps the snapshot with the current time and queues it at the
// given level. Synchronous requests are queued at a higher priority and block
// the caller until the worker has handled the job; asynchronous requests
// return immediately.
//
// A synchronous Enqueue before Start panics: with no worker there is nothing
// to signal completion, and blocking forever would hide the lifecycle bug.
// Asynchronous jobs may be queued before Start and are drained once it runs.
func (c *Controller) Enqueue(sessionID string, snap domain.Snapshot, level domain.Level, synchronous bool) {
	job := &Job{
		SessionID: sessionID,
		Snapshot:  snap.Clone(),
		Level:     level,
		Timestamp: time.Now(),
		priority:  priorityAsync,
		ack:       make(chan struct{}),
	}
	if synchronous {
		job.priority = prioritySync
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(job.ack)
		return
	}
	if synchronous && !c.started {
		c.mu.Unlock()
		panic("saving: synchronous Enqueue before Start")
	}
	c.seq++
	job.seq = c.seq
	c.pending.Add(1)
	heap.Push(&c.queue, job)
	c.metrics.QueueDepth.Set(float64(len(c.queue)))
	c.cond.Signal()
	c.mu.Unlock()

	if synchronous {
		<-job.ack
	}
}

// DrainAndWait blocks until every queued job has been handled. Call it before
// process exit so the final snapshot is never lost.
func (c *Controller) DrainAndWait() {
	c.pending.Wait()
}

// Close drains the queue, stops the worker and waits for it to exit. The
// controller accepts no jobs afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cond.Broadcast()
	started := c.started
	c.mu.Unlock()
	if started {
		c.worker.Wait()
	}
}

func (c *Controller) run() {
	defer c.worker.Done()
	for {
		c.mu.Lock()
		for len(c.queue) == 0 && !c.closed {
			c.cond.Wait()
		}
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		job := heap.Pop(&c.queue).(*Job)
		c.metrics.QueueDepth.Set(float64(len(c.queue)))
		c.mu.Unlock()

		c.process(job)
		c.pending.Done()
		close(job.ack)
	}
}

// process writes one job to every agent it activates. Per-agent failures are
// logged and skipped; any failure additionally routes the snapshot to the
// fixed failure agent, which accepts regardless of level. The last committed
// timestamp advances only once at least one write succeeded.
func (c *Controller) process(job *Job) {
	ctx := context.Background()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if last, ok := c.lastWritten[job.SessionID]; ok && !job.Timestamp.After(last) {
		// A newer snapshot of this session has already been committed.
		c.metrics.Jobs.WithLabelValues(outcomeStale).Inc()
		return
	}

	anyFailed := false
	anySucceeded := false
	for _, agent := range c.agents {
		if agent.ActivationLevel() > job.Level {
			continue
		}
		if err := agent.Save(ctx, job.Snapshot); err != nil {
			c.logger.Error("storage agent write failed", "agent", agent.Name(), "session", job.SessionID, "err", err)
			c.metrics.AgentFailures.WithLabelValues(agent.Name()).Inc()
			anyFailed = true
			continue
		}
		anySucceeded = true
	}

	outcome := outcomeCommitted
	if anyFailed {
		if err := c.failure.Save(ctx, job.Snapshot); err != nil {
			c.logger.Error("failure agent write failed, snapshot may be lost",
				"agent", c.failure.Name(), "session", job.SessionID, "err", err)
			if !anySucceeded {
				outcome = outcomeLost
			}
		} else {
			anySucceeded = true
			outcome = outcomeRescued
		}
	} else if !anySucceeded {
		// No agent activated at this level; nothing was written, nothing failed.
		outcome = outcomeSkipped
	}

	if anySucceeded {
		c.lastWritten[job.SessionID] = job.Timestamp
	}
	c.metrics.Jobs.WithLabelValues(outcome).Inc()
}

// LastCommitted returns the timestamp of the newest committed snapshot for a
// session, zero if none.
func (c *Controller) LastCommitted(sessionID string) time.Time {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.lastWritten[sessionID]
}
