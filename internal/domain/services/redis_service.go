package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"prima-sync-service/internal/domain/models"
	"prima-sync-service/internal/infrastructure/config"
)

// BatchProgressTTL 批量进度缓存时间
const BatchProgressTTL = 24 * time.Hour

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	Ping() error
	SaveBatchProgress(progress *models.BatchProgress) error
	GetBatchProgress(formID uint) (*models.BatchProgress, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return NewRedisServiceWithClient(client)
}

// NewRedisServiceWithClient wraps an existing client
func NewRedisServiceWithClient(client *redis.Client) InterfaceRedisService {
	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// 1 Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// 2 Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(val, dest)
}

// 3 Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// 4 Ping checks the connection
func (s *RedisService) Ping() error {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()
	return s.Client.Ping(ctx).Err()
}

// 5 SaveBatchProgress caches the latest batch lookup progress of a form
func (s *RedisService) SaveBatchProgress(progress *models.BatchProgress) error {
	return s.Set(batchProgressKey(progress.FormID), progress, BatchProgressTTL)
}

// 6 GetBatchProgress returns the cached progress, nil when none is cached
func (s *RedisService) GetBatchProgress(formID uint) (*models.BatchProgress, error) {
	var progress models.BatchProgress
	if err := s.Get(batchProgressKey(formID), &progress); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

func batchProgressKey(formID uint) string {
	return fmt.Sprintf("prima_sync:batch_progress:%d", formID)
}
