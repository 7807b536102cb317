// Package session ties one participant's run together: the experiment tree
// they navigate, the metadata describing the experiment, and the saving
// pipeline that records a snapshot after every accepted transition.
package session

import (
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/ctreffe/alfred/internal/logging"
	"github.com/ctreffe/alfred/pkg/domain"
	"github.com/ctreffe/alfred/pkg/saving"
	"github.com/ctreffe/alfred/pkg/tree"
)

// Metadata describes the experiment a session belongs to.
type Metadata struct {
	Name      string
	Version   string
	Type      string
	Condition string
}

// Session runs one participant through an experiment. Navigation is
// single-threaded: all movement calls for a session come from the one
// goroutine serving that participant.
type Session struct {
	meta  Metadata
	id    string
	start time.Time

	dispatch dispatcher

	additional map[string]any

	saver  *saving.Controller
	logger *slog.Logger
}

// dispatcher routes movement calls to whichever tree is active: the content
// tree while the experiment runs, the finish tree afterwards. It replaces
// dynamic attribute forwarding with an explicit recognized operation set.
type dispatcher struct {
	content  *tree.Section
	finish   *tree.Section
	finished bool
}

func (d *dispatcher) active() *tree.Section {
	if d.finished {
		return d.finish
	}
	return d.content
}

// Option configures a Session.
type Option func(*Session)

// WithLogger configures the session's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithSaver attaches the saving controller; without one the session runs
// unpersisted (useful in tests and dry runs).
func WithSaver(saver *saving.Controller) Option {
	return func(s *Session) { s.saver = saver }
}

// WithSessionID overrides the generated session uuid.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithFinishSection replaces the default finish tree.
func WithFinishSection(finish *tree.Section) Option {
	return func(s *Session) { s.dispatch.finish = finish }
}

// New creates a session over the given content tree and starts it: the
// cursor lands on the first visible page and an initial snapshot is queued.
func New(meta Metadata, content *tree.Section, opts ...Option) *Session {
	s := &Session{
		meta:       meta,
		id:         uuid.NewString(),
		start:      time.Now(),
		additional: make(map[string]any),
		logger:     logging.NewNop(),
	}
	s.dispatch.content = content
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatch.finish == nil {
		s.dispatch.finish = defaultFinishSection()
	}
	content.Init()
	s.enqueue(domain.LevelRoutine, false)
	return s
}

func defaultFinishSection() *tree.Section {
	finish := tree.NewSection(tree.WithSectionTag("finish"))
	_ = finish.Append(tree.NewPage("Finished", tree.WithBody("The experiment is over. Thank you for participating.")))
	return finish
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Meta() Metadata     { return s.meta }
func (s *Session) Started() time.Time { return s.start }
func (s *Session) Finished() bool     { return s.dispatch.finished }

// CurrentPage returns the deepest active page of the active tree.
func (s *Session) CurrentPage() *tree.Page {
	return s.dispatch.active().CurrentLeaf()
}

// CurrentPath returns the index path to the current page.
func (s *Session) CurrentPath() []int {
	return s.dispatch.active().CurrentPath()
}

// CanForward reports whether a forward move could currently succeed at the
// candidate level (a closing gate may still refuse it).
func (s *Session) CanForward() bool { return s.dispatch.active().CanMoveForward() }

// CanBackward reports whether a backward move could currently succeed.
func (s *Session) CanBackward() bool { return s.dispatch.active().CanMoveBackward() }

// Forward advances the active tree and queues a snapshot on success.
func (s *Session) Forward() error {
	return s.move(func(t *tree.Section) error { return t.MoveForward() })
}

// Backward retreats the active tree and queues a snapshot on success.
func (s *Session) Backward() error {
	return s.move(func(t *tree.Section) error { return t.MoveBackward() })
}

// JumpTo moves directly to the node addressed by path.
func (s *Session) JumpTo(path []int) error {
	return s.move(func(t *tree.Section) error { return t.MoveToPosition(path) })
}

// JumpFirst moves to the first reachable page.
func (s *Session) JumpFirst() error {
	return s.move(func(t *tree.Section) error { return t.MoveToFirst() })
}

// JumpLast moves to the last reachable page.
func (s *Session) JumpLast() error {
	return s.move(func(t *tree.Section) error { return t.MoveToLast() })
}

func (s *Session) move(op func(*tree.Section) error) error {
	if err := op(s.dispatch.active()); err != nil {
		s.logger.Debug("navigation refused", "session", s.id, "err", err)
		return err
	}
	s.enqueue(domain.LevelRoutine, false)
	return nil
}

// Jumplist yields the directly navigable targets of the active tree.
func (s *Session) Jumplist() []tree.JumpEntry {
	var entries []tree.JumpEntry
	for entry := range s.dispatch.active().Jumplist() {
		entries = append(entries, entry)
	}
	return entries
}

// SetAdditional records an ad hoc key/value pair carried on every snapshot.
func (s *Session) SetAdditional(key string, value any) {
	s.additional[key] = value
}

// Additional reads an ad hoc value.
func (s *Session) Additional(key string) (any, bool) {
	v, ok := s.additional[key]
	return v, ok
}

// Flush queues a checkpoint snapshot, optionally blocking until it has been
// handled.
func (s *Session) Flush(synchronous bool) {
	s.enqueue(domain.LevelCheckpoint, synchronous)
}

// Finish switches the session to the finish tree and records the final
// snapshot synchronously, so the participant's completion is never lost.
func (s *Session) Finish() {
	if s.dispatch.finished {
		return
	}
	s.dispatch.finished = true
	s.dispatch.finish.Init()
	s.logger.Info("session finished", "session", s.id, "experiment", s.meta.Name)
	s.enqueue(domain.LevelFinal, true)
}

// Snapshot serializes the full session state: the content tree's recursive
// data with the experiment metadata and additional data merged on top.
func (s *Session) Snapshot() domain.Snapshot {
	snap := s.dispatch.content.Data()
	snap[domain.KeySessionID] = s.id
	snap[domain.KeyExpName] = s.meta.Name
	snap[domain.KeyExpVersion] = s.meta.Version
	snap[domain.KeyExpType] = s.meta.Type
	snap[domain.KeyCondition] = s.meta.Condition
	snap[domain.KeyStartTime] = s.start.Format(time.RFC3339Nano)
	snap[domain.KeyFinished] = s.dispatch.finished
	snap[domain.KeyAdditional] = maps.Clone(s.additional)
	return snap
}

func (s *Session) enqueue(level domain.Level, synchronous bool) {
	if s.saver == nil {
		return
	}
	s.saver.Enqueue(s.id, s.Snapshot(), level, synchronous)
}
