package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// RedisStore keeps agent presence as Redis hashes under presence:<identity>
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies connectivity
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func presenceKey(identity string) string {
	return "presence:" + identity
}

func (s *RedisStore) UpdateAgentStatus(ctx context.Context, identity string, status types.AgentStatus) error {
	err := s.client.HSet(ctx, presenceKey(identity),
		"agent_status", string(status),
		"last_active_at", time.Now().UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateLastActive(ctx context.Context, identity string, t time.Time) error {
	err := s.client.HSet(ctx, presenceKey(identity), "last_active_at", t.UnixMilli()).Err()
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}
	return nil
}
