package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/omnibot/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score of executions without TTL (2100-01-01).
const farFuture = 4102444800

// Store implements ports.ExecutionStore using Redis.
//
// Layout, for prefix P:
//
//	Pexec:<conversation>   JSON FlowExecution, with TTL
//	Pvars:<conversation>   HASH of conversation variables, with TTL
//	Pmeta:index            ZSET of conversations scored by expiry
//
// Each key kind has its own namespace, so no conversation id can address
// another conversation's keys or the index.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for executions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "omnibot:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(conversationID string) string {
	return s.prefix + "exec:" + conversationID
}

func (s *Store) varsKey(conversationID string) string {
	return s.prefix + "vars:" + conversationID
}

func (s *Store) indexKey() string {
	return s.prefix + "meta:index"
}

func (s *Store) score() float64 {
	if s.ttl == 0 {
		return farFuture
	}
	return float64(time.Now().Add(s.ttl).Unix())
}

// Save persists the execution to Redis.
func (s *Store) Save(ctx context.Context, conversationID string, exec *domain.FlowExecution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(conversationID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  s.score(),
		Member: conversationID,
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, s.varsKey(conversationID), s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the execution from Redis.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.FlowExecution, error) {
	val, err := s.client.Get(ctx, s.key(conversationID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var exec domain.FlowExecution
	if err := json.Unmarshal([]byte(val), &exec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	if exec.Variables == nil {
		exec.Variables = make(map[string]string)
	}
	return &exec, nil
}

// Delete removes the execution and its variables.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(conversationID), s.varsKey(conversationID))
	pipe.ZRem(ctx, s.indexKey(), conversationID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns live conversations, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired executions: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return ids, nil
}

// AppendVariable upserts one field of the variables hash.
func (s *Store) AppendVariable(ctx context.Context, conversationID, name, value string) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.varsKey(conversationID), name, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.varsKey(conversationID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store variable %s: %w", name, err)
	}
	return nil
}

// Variables returns the variables hash.
func (s *Store) Variables(ctx context.Context, conversationID string) (map[string]string, error) {
	vars, err := s.client.HGetAll(ctx, s.varsKey(conversationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}
	return vars, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
