// Package redis persists the resource catalog and version metas. The
// in-memory catalog stays the primary lookup structure; this store exists so
// a restarted process can warm itself without waiting for a scrape cycle.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oneinstack/mirror/internal/domain"
)

// Store handles Redis persistence for catalog records, version metas and
// scheduler bookkeeping.
type Store struct {
	client *redis.Client
}

// NewStore creates a store on an established client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// SaveResources upserts a batch of records into the catalog hash in one
// pipeline round trip.
func (s *Store) SaveResources(ctx context.Context, resources []domain.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for i := range resources {
		data, err := json.Marshal(&resources[i])
		if err != nil {
			return fmt.Errorf("failed to marshal resource %s: %w", resources[i].FileName, err)
		}
		pipe.HSet(ctx, KeyCatalog, resources[i].FileName, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save resources: %w", err)
	}
	return nil
}

// LoadResources returns every persisted record. Entries that fail to decode
// are skipped rather than failing the whole warm-up.
func (s *Store) LoadResources(ctx context.Context) ([]domain.Resource, error) {
	raw, err := s.client.HGetAll(ctx, KeyCatalog).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	resources := make([]domain.Resource, 0, len(raw))
	for _, data := range raw {
		var r domain.Resource
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			continue
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// SaveVersionMetas upserts suggested-version entries.
func (s *Store) SaveVersionMetas(ctx context.Context, metas []domain.VersionMeta) error {
	if len(metas) == 0 {
		return nil
	}

	pairs := make([]any, 0, len(metas)*2)
	for _, m := range metas {
		pairs = append(pairs, m.Key, m.Version)
	}
	if err := s.client.HSet(ctx, KeyVersionMetas, pairs...).Err(); err != nil {
		return fmt.Errorf("failed to save version metas: %w", err)
	}
	return nil
}

// LoadVersionMetas returns all suggested-version entries.
func (s *Store) LoadVersionMetas(ctx context.Context) (map[string]string, error) {
	metas, err := s.client.HGetAll(ctx, KeyVersionMetas).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load version metas: %w", err)
	}
	return metas, nil
}

// SetSchedulerTimes records when the last cycle ran and when the next is
// due. Zero times are left untouched.
func (s *Store) SetSchedulerTimes(ctx context.Context, lastRun, nextRun time.Time) error {
	pipe := s.client.Pipeline()
	if !lastRun.IsZero() {
		pipe.Set(ctx, KeySchedulerLastRun, lastRun.UTC().Format(time.RFC3339), 0)
	}
	if !nextRun.IsZero() {
		pipe.Set(ctx, KeySchedulerNextRun, nextRun.UTC().Format(time.RFC3339), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set scheduler times: %w", err)
	}
	return nil
}

// GetSchedulerTimes returns the recorded cycle times; zero values when a key
// was never written.
func (s *Store) GetSchedulerTimes(ctx context.Context) (lastRun, nextRun time.Time, err error) {
	lastRun, err = s.getTime(ctx, KeySchedulerLastRun)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	nextRun, err = s.getTime(ctx, KeySchedulerNextRun)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return lastRun, nextRun, nil
}

func (s *Store) getTime(ctx context.Context, key string) (time.Time, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

// Ping verifies the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
