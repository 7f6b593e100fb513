package redis

import (
	"ProjectHatify/internal/entity"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type IRedis interface {
	SetProcessedMeta(ctx context.Context, meta entity.ProcessedImageMeta, expiration time.Duration) error
	GetProcessedMeta(ctx context.Context, cacheKey string) (*entity.ProcessedImageMeta, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func metaKey(cacheKey string) string {
	return "hatify:meta:" + cacheKey
}

func (r *redisClient) SetProcessedMeta(ctx context.Context, meta entity.ProcessedImageMeta, expiration time.Duration) error {
	payload, err := jsoniter.Marshal(meta)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, metaKey(meta.CacheKey), payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error storing processed meta for key %s: %v", meta.CacheKey, err))
		return err
	}

	return nil
}

// GetProcessedMeta returns nil without error when no record exists.
func (r *redisClient) GetProcessedMeta(ctx context.Context, cacheKey string) (*entity.ProcessedImageMeta, error) {
	val, err := r.client.Get(ctx, metaKey(cacheKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading processed meta for key %s: %v", cacheKey, err))
		return nil, err
	}

	var meta entity.ProcessedImageMeta
	if err := jsoniter.Unmarshal([]byte(val), &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}
