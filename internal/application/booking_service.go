package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/allocation"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/metrics"
)

// AvailabilityInvalidator は空席数キャッシュの無効化を抽象化する（nil可）
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, eventID int64) error
}

// NotificationPublisher は繰り上げ通知のメッセージ発行を抽象化する（nil可）
// 発行はコミット後のベストエフォートで、失敗しても予約処理には影響しない
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *notification.Notification) error
}

type BookingService struct {
	txManager    transaction.Manager
	allocator    allocation.Allocator
	strategy     allocation.Strategy
	bookingRepo  booking.Repository
	seatRepo     seat.Repository
	waitlistRepo waitlist.Repository
	promotion    *PromotionPolicy
	cache        AvailabilityInvalidator
	publisher    NotificationPublisher
	metrics      *metrics.Metrics
}

func NewBookingService(
	tm transaction.Manager,
	al allocation.Allocator,
	strategy allocation.Strategy,
	br booking.Repository,
	sr seat.Repository,
	wr waitlist.Repository,
	pp *PromotionPolicy,
	cache AvailabilityInvalidator,
	publisher NotificationPublisher,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		txManager:    tm,
		allocator:    al,
		strategy:     strategy,
		bookingRepo:  br,
		seatRepo:     sr,
		waitlistRepo: wr,
		promotion:    pp,
		cache:        cache,
		publisher:    publisher,
		metrics:      m,
	}
}

type CreateBookingInput struct {
	UserID  int64
	EventID int64
	// SeatNumber が空の場合は作成順で最初の空席を自動選択する
	SeatNumber string
}

// BookingResult は予約リクエストの結果。満席時は予約の代わりに
// キャンセル待ちエントリが作成され Waitlisted が true になる
type BookingResult struct {
	Booking    *booking.Booking
	Waitlisted bool
}

// CreateBooking は座席を1つ割り当てて予約を作成する。
// 自動選択で満席だった場合はキャンセル待ちに登録する。
// 座席指定で占有済みだった場合はキャンセル待ちへは倒さずエラーを返す。
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error) {
	if input.UserID <= 0 {
		return nil, booking.ErrUserIDRequired
	}
	if input.EventID <= 0 {
		return nil, booking.ErrEventIDRequired
	}

	result, err := s.allocateAndBook(ctx, input)
	if err != nil && input.SeatNumber == "" && errors.Is(err, seat.ErrSeatAlreadyBooked) {
		// 指定席パスはイベント行ロックを通らないため、自動選択が
		// 選んだ座席を割り当てと挿入の間に奪うことがある。
		// その場合のみ新しいトランザクションで1回だけ取り直す
		logger.Info("自動選択が挿入時に競合したため再割り当てします",
			zap.Int64("user_id", input.UserID),
			zap.Int64("event_id", input.EventID))
		result, err = s.allocateAndBook(ctx, input)
	}
	return result, err
}

func (s *BookingService) allocateAndBook(ctx context.Context, input CreateBookingInput) (*BookingResult, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	start := time.Now()
	allocated, err := s.allocator.Allocate(ctx, tx, input.EventID, input.SeatNumber)
	s.observeAllocation(time.Since(start))
	if err != nil {
		if errors.Is(err, booking.ErrEventFull) {
			return s.joinWaitlist(ctx, tx, input)
		}
		s.countBooking(outcomeFor(err))
		return nil, err
	}

	b := booking.NewBooking(input.UserID, input.EventID, allocated.ID)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		// 楽観方式では部分一意制約の違反がここで衝突として現れる
		s.countBooking(outcomeFor(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateAvailability(ctx, input.EventID)
	s.countBooking("booked")
	if s.metrics != nil {
		s.metrics.ActiveBookings.Inc()
	}

	logger.Info("予約を作成しました",
		zap.Int64("booking_id", b.ID),
		zap.Int64("user_id", input.UserID),
		zap.Int64("event_id", input.EventID),
		zap.Int64("seat_id", allocated.ID))

	return &BookingResult{Booking: b}, nil
}

// joinWaitlist は満席イベントへのリクエストをキャンセル待ちに変換する
func (s *BookingService) joinWaitlist(ctx context.Context, tx transaction.Tx, input CreateBookingInput) (*BookingResult, error) {
	exists, err := s.waitlistRepo.ExistsByUserAndEvent(ctx, tx, input.UserID, input.EventID)
	if err != nil {
		return nil, fmt.Errorf("キャンセル待ちの重複確認に失敗: %w", err)
	}
	if exists {
		return nil, waitlist.ErrAlreadyWaitlisted
	}

	entry := waitlist.NewEntry(input.UserID, input.EventID)
	if err := s.waitlistRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.countBooking("waitlisted")
	s.countWaitlist("joined")

	logger.Info("キャンセル待ちに登録しました",
		zap.Int64("user_id", input.UserID),
		zap.Int64("event_id", input.EventID))

	return &BookingResult{Waitlisted: true}, nil
}

// CancelBooking は予約をキャンセルし、同一トランザクションで
// キャンセル待ちの先頭を1件繰り上げる
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID int64) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	b, err := s.bookingRepo.GetActiveForUpdate(ctx, tx, bookingID, userID)
	if err != nil {
		return err
	}
	if err := b.Cancel(); err != nil {
		return err
	}
	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return err
	}

	promoted, err := s.promotion.Promote(ctx, tx, b.EventID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateAvailability(ctx, b.EventID)
	if s.metrics != nil {
		s.metrics.ActiveBookings.Dec()
	}
	if promoted != nil {
		s.countWaitlist("promoted")
		s.publishNotification(ctx, promoted)
	}

	logger.Info("予約をキャンセルしました",
		zap.Int64("booking_id", bookingID),
		zap.Int64("user_id", userID),
		zap.Int64("event_id", b.EventID))

	return nil
}

// GetUserBookings はユーザーの有効予約一覧をイベント・座席情報付きで返す
func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*booking.Details, error) {
	return s.bookingRepo.GetDetailsByUserID(ctx, userID)
}

// SweepPromotions は待ちの残っている全イベントを走査し、空席がある限り
// 繰り上げる。キャンセル経路の取りこぼし（クラッシュ等）を回収する補完処理
func (s *BookingService) SweepPromotions(ctx context.Context) error {
	eventIDs, err := s.waitlistRepo.ListWaitingEventIDs(ctx)
	if err != nil {
		return fmt.Errorf("待ちイベント一覧の取得に失敗: %w", err)
	}

	for _, eventID := range eventIDs {
		if err := s.sweepEvent(ctx, eventID); err != nil {
			logger.Error("繰り上げスイープに失敗",
				zap.Int64("event_id", eventID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *BookingService) sweepEvent(ctx context.Context, eventID int64) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	free, err := s.seatRepo.CountFreeByEventID(ctx, tx, eventID)
	if err != nil {
		return fmt.Errorf("空席数の取得に失敗: %w", err)
	}

	var promoted []*notification.Notification
	for i := 0; i < free; i++ {
		n, err := s.promotion.Promote(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if n == nil {
			break
		}
		promoted = append(promoted, n)
	}

	if len(promoted) == 0 {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	for _, n := range promoted {
		s.countWaitlist("promoted")
		s.publishNotification(ctx, n)
	}
	return nil
}

func (s *BookingService) invalidateAvailability(ctx context.Context, eventID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗",
			zap.Int64("event_id", eventID),
			zap.Error(err))
	}
}

func (s *BookingService) publishNotification(ctx context.Context, n *notification.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotification(ctx, n); err != nil {
		logger.Warn("繰り上げ通知の発行に失敗",
			zap.Int64("user_id", n.UserID),
			zap.Error(err))
	}
}

func (s *BookingService) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *BookingService) countWaitlist(action string) {
	if s.metrics != nil {
		s.metrics.WaitlistTotal.WithLabelValues(action).Inc()
	}
}

func (s *BookingService) observeAllocation(d time.Duration) {
	if s.metrics != nil {
		s.metrics.AllocationDuration.WithLabelValues(string(s.strategy)).Observe(d.Seconds())
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, seat.ErrSeatAlreadyBooked):
		return "conflict"
	case errors.Is(err, booking.ErrBusy):
		return "busy"
	default:
		return "error"
	}
}
