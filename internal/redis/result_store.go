package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"spatialgrid/internal/config"
	"spatialgrid/internal/service/query"
	"spatialgrid/internal/util"
)

const ResultRedisKey = "result"

var ErrResultNotFound = query.ErrResultNotFound

// ResultStore keeps query results as JSON documents with an expiry
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = config.DefaultResultTTL
	}
	return &ResultStore{client: client, ttl: ttl}
}

// SaveResult stores result under a new key "result:<kind>:<id>" and returns the key
func (s *ResultStore) SaveResult(ctx context.Context, kind string, result interface{}) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", kind, err)
	}

	key := util.NewKey(ResultRedisKey, kind)

	ctx, cancel := context.WithTimeout(ctx, config.RedisTimeout)
	defer cancel()

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("saving %s result: %w", kind, err)
	}

	log.Printf("Saved %s result to Redis as %s (%d bytes)", kind, key, len(data))
	return key, nil
}

// GetResult returns the JSON document stored under key
func (s *ResultStore) GetResult(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, ResultRedisKey+":") {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, key)
	}

	ctx, cancel := context.WithTimeout(ctx, config.RedisTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading result %s: %w", key, err)
	}
	return data, nil
}
