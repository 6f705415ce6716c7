package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache はイベントの空席数キャッシュを管理する
// 読み取り系エンドポイント専用。割り当て判断には決して使わない
// （割り当てはトランザクション内で必ず台帳を読み直す）
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetFreeCount はイベントの空席数をキャッシュから取得する
func (c *AvailabilityCache) GetFreeCount(ctx context.Context, eventID int64) (int, error) {
	val, err := c.client.Get(ctx, c.freeCountKey(eventID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetFreeCount はイベントの空席数をキャッシュに保存する
func (c *AvailabilityCache) SetFreeCount(ctx context.Context, eventID int64, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.freeCountKey(eventID), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID int64) error {
	if err := c.client.Del(ctx, c.freeCountKey(eventID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) freeCountKey(eventID int64) string {
	return fmt.Sprintf("seats:free:%d", eventID)
}
