package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotTTL bounds how long a persisted league entry survives. A snapshot
// is only ever a warm-start hint, so a day is plenty.
const SnapshotTTL = 24 * time.Hour

const snapshotKeyPrefix = "events:snapshot:"

// RedisSnapshot persists league entries to Redis, one key per league.
type RedisSnapshot struct {
	client *redis.Client
}

// NewRedisSnapshot creates a Redis-backed snapshot store
func NewRedisSnapshot(client *redis.Client) *RedisSnapshot {
	return &RedisSnapshot{
		client: client,
	}
}

// Save writes one league entry. Only the caller decides what is worth
// persisting (same-day entries only).
func (r *RedisSnapshot) Save(ctx context.Context, entry Entry) error {
	key := snapshotKeyPrefix + entry.League

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling snapshot entry: %w", err)
	}

	return r.client.Set(ctx, key, data, SnapshotTTL).Err()
}

// Load reads every persisted league entry. Individual malformed values are
// skipped so one bad key cannot poison the warm start.
func (r *RedisSnapshot) Load(ctx context.Context) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	iter := r.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			// Malformed snapshot value - treat as absent
			continue
		}
		entries[key] = entry
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot keys: %w", err)
	}

	return entries, nil
}
