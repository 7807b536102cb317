// Package redis implements the networked document-store storage agent.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	backend "github.com/redis/go-redis/v9"

	"github.com/ctreffe/alfred/pkg/domain"
)

// Agent upserts one JSON document per session and maintains a sorted index of
// session ids. Transient write failures are retried with exponential backoff
// before the saving controller's failure tier takes over.
type Agent struct {
	client     *backend.Client
	prefix     string
	level      domain.Level
	maxRetries uint64
}

// Option configures the Agent.
type Option func(*Agent)

// WithPrefix sets the key prefix for session documents.
func WithPrefix(prefix string) Option {
	return func(a *Agent) { a.prefix = prefix }
}

// WithActivationLevel sets the minimum job level this agent runs for.
func WithActivationLevel(level domain.Level) Option {
	return func(a *Agent) { a.level = level }
}

// WithMaxRetries bounds the per-save retry attempts.
func WithMaxRetries(n uint64) Option {
	return func(a *Agent) { a.maxRetries = n }
}

// New connects to Redis and verifies the connection, so an unreachable
// backend surfaces as a construction failure and the fallback tiers engage.
func New(address, password string, db int, opts ...Option) (*Agent, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	a := NewFromClient(client, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", address, err)
	}
	return a, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Agent {
	a := &Agent{
		client:     client,
		prefix:     "alfred:session:",
		level:      domain.LevelRoutine,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) key(sessionID string) string { return a.prefix + sessionID }
func (a *Agent) indexKey() string            { return a.prefix + "index" }

func (a *Agent) Name() string                  { return "redis:" + a.prefix }
func (a *Agent) ActivationLevel() domain.Level { return a.level }

// Save upserts the snapshot document and the index entry in one pipeline.
func (a *Agent) Save(ctx context.Context, snap domain.Snapshot) error {
	sessionID := snap.SessionID()
	if sessionID == "" {
		return fmt.Errorf("snapshot carries no session id")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	write := func() error {
		pipe := a.client.Pipeline()
		pipe.Set(ctx, a.key(sessionID), data, 0)
		pipe.ZAdd(ctx, a.indexKey(), backend.Z{
			Score:  float64(time.Now().Unix()),
			Member: sessionID,
		})
		_, err := pipe.Exec(ctx)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), a.maxRetries), ctx)
	if err := backoff.Retry(write, policy); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads a stored snapshot back.
func (a *Agent) Load(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	val, err := a.client.Get(ctx, a.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// List returns the indexed session ids in save order.
func (a *Agent) List(ctx context.Context) ([]string, error) {
	ids, err := a.client.ZRange(ctx, a.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (a *Agent) Close() error {
	return a.client.Close()
}
