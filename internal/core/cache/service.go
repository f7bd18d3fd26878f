package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recipe-recommender/internal/core/match"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service 推薦結果緩存
// 以標準食材集合為鍵緩存整筆推薦結果；所有緩存錯誤都降級為未命中
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService 創建緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled {
		return &Service{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存的推薦結果
func (s *Service) Get(ctx context.Context, materials []string) ([]match.Recommendation, bool) {
	if !s.config.Enabled || s.client == nil {
		return nil, false
	}

	key := s.generateKey(materials)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		common.LogCacheMiss("recommend", key)
		return nil, false
	}

	var recommendations []match.Recommendation
	if err := json.Unmarshal(data, &recommendations); err != nil {
		common.LogCacheMiss("recommend", key)
		return nil, false
	}

	common.LogCacheHit("recommend", key)
	return recommendations, true
}

// Set 緩存推薦結果
func (s *Service) Set(ctx context.Context, materials []string, recommendations []match.Recommendation) error {
	if !s.config.Enabled || s.client == nil {
		return nil
	}

	data, err := json.Marshal(recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	key := s.generateKey(materials)
	if err := s.client.Set(ctx, key, data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// generateKey 以排序後的食材集合生成緩存鍵
// Normalize 輸出已排序，相同集合必得相同鍵
func (s *Service) generateKey(materials []string) string {
	return "recommend:" + common.HashString(strings.Join(materials, "|"))
}

// Close 關閉緩存服務
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
