// Package rotation keeps the round-robin provider position outside the process so every
// gateway instance advances the same counter.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rotation")

// Cursor hands out a monotonically increasing position.
type Cursor interface {
	Next(ctx context.Context) (int64, error)
}

// NewRedisClient 创建 Redis 客户端并验证连接
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RedisCursor advances a counter with INCR.
type RedisCursor struct {
	rdb *redis.Client
	key string
}

func NewRedisCursor(rdb *redis.Client, key string) *RedisCursor {
	return &RedisCursor{rdb: rdb, key: key}
}

func (c *RedisCursor) Next(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "redis.Incr", trace.WithAttributes(attribute.String("key", c.key)))
	defer span.End()

	position, err := c.rdb.Incr(ctx, c.key).Result()
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("advance redis cursor: %w", err)
	}
	return position, nil
}

// Advancer is the slice of the repository that persists cursors.
type Advancer interface {
	AdvanceCursor(ctx context.Context, name string) (int64, error)
}

// RepositoryCursor advances a row in the rotation_cursor table.
type RepositoryCursor struct {
	store Advancer
	name  string
}

func NewRepositoryCursor(store Advancer, name string) *RepositoryCursor {
	return &RepositoryCursor{store: store, name: name}
}

func (c *RepositoryCursor) Next(ctx context.Context) (int64, error) {
	if c.store == nil {
		return 0, errors.New("cursor store is not configured")
	}
	return c.store.AdvanceCursor(ctx, c.name)
}

const (
	PolicyPriority   = "priority"
	PolicyRoundRobin = "round_robin"
)

// NormalisePolicy maps unknown policy names to priority.
func NormalisePolicy(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case PolicyRoundRobin, "round-robin", "roundrobin":
		return PolicyRoundRobin
	default:
		return PolicyPriority
	}
}

// Rotate returns items starting at position modulo len(items), wrapping around.
// The input slice is not modified.
func Rotate[T any](items []T, position int64) []T {
	n := int64(len(items))
	out := make([]T, 0, len(items))
	if n == 0 {
		return out
	}
	start := position % n
	if start < 0 {
		start += n
	}
	out = append(out, items[start:]...)
	out = append(out, items[:start]...)
	return out
}
