package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "fleetwire:conn:"
	redisOpTimeout = 2 * time.Second
)

// RedisTracker is the shared-registry variant for multi-instance
// deployments: connection records live in Redis with a TTL equal to the
// staleness threshold, so eviction is handled by key expiry instead of a
// sweep, and every instance sees the global connection set.
type RedisTracker struct {
	client     *redis.Client
	staleAfter time.Duration
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client, staleAfter: DefaultStaleAfter}
}

func (t *RedisTracker) Register(userID, carrierID uuid.UUID, userAgent string) (string, error) {
	now := time.Now()
	conn := Connection{
		ID:            uuid.NewString(),
		UserID:        userID,
		CarrierID:     carrierID,
		UserAgent:     userAgent,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
	if err := t.write(conn); err != nil {
		return "", err
	}
	return conn.ID, nil
}

func (t *RedisTracker) Heartbeat(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := t.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tracker heartbeat: %w", err)
	}
	var conn Connection
	if err := json.Unmarshal(raw, &conn); err != nil {
		return fmt.Errorf("tracker heartbeat: %w", err)
	}
	conn.LastHeartbeat = time.Now()
	return t.write(conn)
}

func (t *RedisTracker) Unregister(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return t.client.Del(ctx, redisKeyPrefix+id).Err()
}

func (t *RedisTracker) ListActive(staleAfter time.Duration) ([]Connection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	cutoff := time.Now().Add(-staleAfter)
	conns := []Connection{}

	iter := t.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := t.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tracker list: %w", err)
		}
		var conn Connection
		if err := json.Unmarshal(raw, &conn); err != nil {
			continue
		}
		// TTL expiry usually handles staleness; the cutoff also applies
		// when callers ask for a tighter threshold than the TTL.
		if conn.LastHeartbeat.Before(cutoff) {
			continue
		}
		conns = append(conns, conn)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("tracker list: %w", err)
	}
	return conns, nil
}

func (t *RedisTracker) Count() (int, error) {
	conns, err := t.ListActive(t.staleAfter)
	if err != nil {
		return 0, err
	}
	return len(conns), nil
}

func (t *RedisTracker) write(conn Connection) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("tracker write: %w", err)
	}
	if err := t.client.Set(ctx, redisKeyPrefix+conn.ID, raw, t.staleAfter).Err(); err != nil {
		return fmt.Errorf("tracker write: %w", err)
	}
	return nil
}
