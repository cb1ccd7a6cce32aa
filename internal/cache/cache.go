package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusgrid/timetabling/internal/config"
	"github.com/campusgrid/timetabling/pkg/model"
)

const keyPrefix = "timetabling:schedule:"

var ErrCacheMiss = errors.New("cache miss")

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// ScheduleCache stores computed schedules under a digest of the snapshot and the search configuration.
// Runs are deterministic, so a hit is exactly the schedule a fresh run would produce.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewScheduleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ScheduleCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleCache{client: client, ttl: ttl, logger: logger}
}

// Key digests the canonical JSON of the processed snapshot and the configuration
func Key(modelInput model.ModelInput, cfg model.Config) (string, error) {
	payload, err := json.Marshal(struct {
		Input  model.ModelInput `json:"input"`
		Config model.Config     `json:"config"`
	}{modelInput, cfg})
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}
	digest := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(digest[:]), nil
}

// Get retrieves the cached schedule for the snapshot and configuration.
func (c *ScheduleCache) Get(ctx context.Context, modelInput model.ModelInput, cfg model.Config) (*model.Schedule, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheMiss
	}
	key, err := Key(modelInput, cfg)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var schedule model.Schedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return &schedule, nil
}

// Set stores the schedule with the configured TTL.
func (c *ScheduleCache) Set(ctx context.Context, modelInput model.ModelInput, cfg model.Config, schedule *model.Schedule) error {
	if c == nil || c.client == nil || schedule == nil {
		return nil
	}
	key, err := Key(modelInput, cfg)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.logger.Debug("schedule cached", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}
