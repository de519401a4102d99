package repository

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tollsetu/fastag-portal/internal/pkg/cache"
	"github.com/tollsetu/fastag-portal/internal/pkg/jobqueue"
)

// queueRepository reads the job queue's redis footprint directly, so the
// admin API can inspect it without going through the queue workers.
type queueRepository struct {
	client *redis.Client
}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository() QueueRepository {
	return &queueRepository{client: cache.GetClient()}
}

// FindJobKeys retrieves every key the job queue owns: per-job payload keys,
// the pending and processing lists and the stats hash. Payload keys are
// collected with SCAN rather than KEYS.
func (r *queueRepository) FindJobKeys() ([]string, error) {
	ctx := context.Background()

	uniqueKeys := make(map[string]struct{})

	var cursor uint64
	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, jobqueue.JobKeyPrefix+"*", 500).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			uniqueKeys[key] = struct{}{}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	for _, key := range []string{jobqueue.JobQueueKey, jobqueue.JobProcessingKey, jobqueue.JobStatsKey} {
		exists, err := r.client.Exists(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if exists > 0 {
			uniqueKeys[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(uniqueKeys))
	for key := range uniqueKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys, nil
}

// GetListLength returns the length of a redis list
func (r *queueRepository) GetListLength(key string) (int64, error) {
	return r.client.LLen(context.Background(), key).Result()
}

// GetTTL retrieves the time-to-live for a specific key
func (r *queueRepository) GetTTL(key string) (time.Duration, error) {
	ttl, err := r.client.TTL(context.Background(), key).Result()
	if err != nil {
		return -1, err
	}
	return ttl, nil
}
