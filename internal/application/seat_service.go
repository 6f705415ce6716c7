package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
)

// availabilityCacheTTL は空席数キャッシュの有効期間。
// キャッシュは読み取り専用の表示用途で、割り当て判断には一切使わない
const availabilityCacheTTL = 30 * time.Second

// AvailabilityCache は空席数キャッシュの読み書きを抽象化する（nil可）
type AvailabilityCache interface {
	GetFreeCount(ctx context.Context, eventID int64) (int, error)
	SetFreeCount(ctx context.Context, eventID int64, count int, ttl time.Duration) error
}

type SeatService struct {
	seatRepo  seat.Repository
	eventRepo event.Repository
	cache     AvailabilityCache
}

func NewSeatService(sr seat.Repository, er event.Repository, cache AvailabilityCache) *SeatService {
	return &SeatService{seatRepo: sr, eventRepo: er, cache: cache}
}

// GetEventSeats はイベントの座席一覧を占有状態付きで返す
func (s *SeatService) GetEventSeats(ctx context.Context, eventID int64) ([]*seat.WithOccupancy, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.seatRepo.GetWithOccupancyByEventID(ctx, eventID)
}

// CountFreeSeats はイベントの空席数を返す。キャッシュがあれば先に引き、
// ミス時はDBから導出してキャッシュへ書き戻す
func (s *SeatService) CountFreeSeats(ctx context.Context, eventID int64) (int, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return 0, err
	}

	if s.cache != nil {
		count, err := s.cache.GetFreeCount(ctx, eventID)
		if err == nil {
			return count, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.Warn("空席数キャッシュの読み取りに失敗",
				zap.Int64("event_id", eventID),
				zap.Error(err))
		}
	}

	count, err := s.seatRepo.CountFreeByEventID(ctx, nil, eventID)
	if err != nil {
		return 0, fmt.Errorf("空席数の取得に失敗: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetFreeCount(ctx, eventID, count, availabilityCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの書き込みに失敗",
				zap.Int64("event_id", eventID),
				zap.Error(err))
		}
	}
	return count, nil
}
