// Package deadletter persists notification jobs that exhausted their delivery
// attempts, so operators can inspect and replay them.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"msmeclinic/internal/notification/models"
)

const (
	defaultKey     = "notifications:dead"
	defaultMaxSize = 1000
)

// RedisStore keeps dead-lettered jobs in a capped Redis list, newest first.
type RedisStore struct {
	client  redis.Cmdable
	key     string
	maxSize int64
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey overrides the list key.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithMaxSize caps how many jobs the list retains.
func WithMaxSize(n int64) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, key: defaultKey, maxSize: defaultMaxSize}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record appends the failed job and trims the list to its cap.
func (s *RedisStore) Record(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal dead-lettered job %s: %w", job.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, 0, s.maxSize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record dead-lettered job %s: %w", job.ID, err)
	}
	return nil
}

// List returns up to limit most recently dead-lettered jobs.
func (s *RedisStore) List(ctx context.Context, limit int64) ([]*models.Job, error) {
	if limit <= 0 {
		limit = s.maxSize
	}
	raw, err := s.client.LRange(ctx, s.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list dead-lettered jobs: %w", err)
	}

	jobs := make([]*models.Job, 0, len(raw))
	for _, item := range raw {
		var job models.Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			return nil, fmt.Errorf("decode dead-lettered job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}
