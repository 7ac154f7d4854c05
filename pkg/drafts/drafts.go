// Package drafts provides a Redis-backed autosave store for in-progress
// edit sessions. The canvas layer pushes the serialized graph here on a
// timer so an interrupted session can be resumed; a successful save or an
// explicit discard clears the entry.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDraftNotFound is returned when no autosaved draft exists for a
// workflow.
var ErrDraftNotFound = errors.New("draft not found")

// IsDraftNotFound reports whether err indicates a missing draft.
func IsDraftNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}

const keyPrefix = "cornerstone:workflow:draft:"

// DefaultTTL is how long an autosaved draft survives without being
// refreshed.
const DefaultTTL = 72 * time.Hour

// Store keeps at most one autosaved draft per workflow.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a draft store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{client: client, ttl: ttl}
}

// NewStoreFromURL creates a draft store from a redis:// URL.
func NewStoreFromURL(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return NewStore(redis.NewClient(opts), ttl), nil
}

// Save stores the serialized graph for a workflow, refreshing the TTL.
func (s *Store) Save(ctx context.Context, workflowID string, graph []byte) error {
	if err := s.client.Set(ctx, keyPrefix+workflowID, graph, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft for workflow %s: %w", workflowID, err)
	}

	return nil
}

// Load returns the autosaved graph for a workflow.
func (s *Store) Load(ctx context.Context, workflowID string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+workflowID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}

		return nil, fmt.Errorf("failed to load draft for workflow %s: %w", workflowID, err)
	}

	return data, nil
}

// Discard removes the autosaved draft for a workflow. Discarding a
// missing draft is not an error.
func (s *Store) Discard(ctx context.Context, workflowID string) error {
	if err := s.client.Del(ctx, keyPrefix+workflowID).Err(); err != nil {
		return fmt.Errorf("failed to discard draft for workflow %s: %w", workflowID, err)
	}

	return nil
}

// HealthCheck pings the Redis backend.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
