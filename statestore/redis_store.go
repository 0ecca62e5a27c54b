package statestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/axonml/search-core/managers"
)

// RedisIterationStateStore persists iteration state in Redis as JSON,
// one key per (group, strategy) pair, for orchestrators that run as
// multiple processes or must survive restarts.
type RedisIterationStateStore struct {
	client *redis.Client
}

// NewRedisIterationStateStore wraps an existing redis.Client.
func NewRedisIterationStateStore(client *redis.Client) *RedisIterationStateStore {
	return &RedisIterationStateStore{client: client}
}

func (s *RedisIterationStateStore) SaveHyperband(ctx context.Context, groupID string, state *managers.HyperbandIterationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal hyperband state: %w", err)
	}
	return s.client.Set(ctx, hyperbandKey(groupID), data, 0).Err()
}

func (s *RedisIterationStateStore) LoadHyperband(ctx context.Context, groupID string) (*managers.HyperbandIterationState, error) {
	data, err := s.client.Get(ctx, hyperbandKey(groupID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hyperband state: %w", err)
	}
	var state managers.HyperbandIterationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal hyperband state: %w", err)
	}
	return &state, nil
}

func (s *RedisIterationStateStore) SaveBO(ctx context.Context, groupID string, state *managers.BOIterationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal bo state: %w", err)
	}
	return s.client.Set(ctx, boKey(groupID), data, 0).Err()
}

func (s *RedisIterationStateStore) LoadBO(ctx context.Context, groupID string) (*managers.BOIterationState, error) {
	data, err := s.client.Get(ctx, boKey(groupID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bo state: %w", err)
	}
	var state managers.BOIterationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal bo state: %w", err)
	}
	return &state, nil
}

func (s *RedisIterationStateStore) Delete(ctx context.Context, groupID string) error {
	return s.client.Del(ctx, hyperbandKey(groupID), boKey(groupID)).Err()
}
