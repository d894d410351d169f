package batch

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

const progressKeyPrefix = "batch:progress:"

// RedisStore persists progress snapshots as JSON values in redis. TTL is a
// deployment concern; zero disables expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Address  string        `mapstructure:"redis_address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	address := config.Address
	if address == "" {
		address = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, err, "redis connect to %s failed", address)
	}

	return &RedisStore{client: client, ttl: config.TTL}, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, progress Progress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "progress encode failed")
	}

	if err := s.client.Set(ctx, progressKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "progress save failed")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (Progress, error) {
	payload, err := s.client.Get(ctx, progressKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Progress{}, apperr.New(apperr.KindNotFound, "unknown batch token %q", token)
		}
		return Progress{}, apperr.Wrap(apperr.KindBackend, err, "progress read failed")
	}

	var progress Progress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return Progress{}, apperr.Wrap(apperr.KindBackend, err, "progress decode failed")
	}
	return progress, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
