package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
)

type EventService struct {
	txManager   transaction.Manager
	eventRepo   event.Repository
	seatRepo    seat.Repository
	bookingRepo booking.Repository
}

func NewEventService(tm transaction.Manager, er event.Repository, sr seat.Repository, br booking.Repository) *EventService {
	return &EventService{txManager: tm, eventRepo: er, seatRepo: sr, bookingRepo: br}
}

type CreateEventInput struct {
	Name       string
	Venue      string
	StartAt    time.Time
	EndAt      time.Time
	TotalSeats int
}

// CreateEvent はイベントと座席を同一トランザクションで作成する。
// 座席番号は "Seat-1" から連番で振られ、作成後は増減しない
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	ev := event.NewEvent(input.Name, input.Venue, input.StartAt, input.EndAt, input.TotalSeats)
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.eventRepo.Create(ctx, tx, ev); err != nil {
		return nil, err
	}

	seats := make([]*seat.Seat, 0, input.TotalSeats)
	for i := 1; i <= input.TotalSeats; i++ {
		se := seat.NewSeat(ev.ID, fmt.Sprintf("Seat-%d", i))
		seats = append(seats, se)
	}
	if err := s.seatRepo.CreateBulk(ctx, tx, seats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("イベントを作成しました",
		zap.Int64("event_id", ev.ID),
		zap.String("name", ev.Name),
		zap.Int("total_seats", input.TotalSeats))

	return ev, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

type UpdateEventInput struct {
	Name    string
	Venue   string
	StartAt time.Time
	EndAt   time.Time
}

// UpdateEvent はイベントの属性を更新する。座席数の変更はできない
func (s *EventService) UpdateEvent(ctx context.Context, id int64, input UpdateEventInput) (*event.Event, error) {
	ev, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ev.Name = input.Name
	ev.Venue = input.Venue
	ev.StartAt = input.StartAt
	ev.EndAt = input.EndAt
	ev.UpdatedAt = time.Now()
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DeleteEvent はイベントを削除する。有効な予約が残っている間は削除できない
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
		return err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	hasActive, err := s.bookingRepo.HasActiveByEventID(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("有効予約の確認に失敗: %w", err)
	}
	if hasActive {
		return event.ErrEventHasActiveBookings
	}

	if err := s.eventRepo.Delete(ctx, tx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	logger.Info("イベントを削除しました", zap.Int64("event_id", id))
	return nil
}
