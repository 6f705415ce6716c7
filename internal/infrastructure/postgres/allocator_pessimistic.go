package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/allocation"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
)

// PessimisticAllocator は行ロックで check-then-insert を直列化する座席アロケーター
//
// 指定席: 座席行を FOR UPDATE でロックしてから占有を確認する。
// ロックなしでは2つのリクエストが同時に「空席」を観測し両方とも
// 挿入できてしまう（check-then-act 競合）
//
// 自動選択: 競合は「どれか1席でも空いているか」に対して起きるため、
// 座席単位ではなくイベント行のロックで探索全体を直列化する
//
// 指定席パスはイベント行ロックを通らない。そのため自動選択の探索が
// 選んだ座席を、並行する指定席予約が挿入前に奪うことはありうる。
// 排他性は有効予約の部分一意制約が保証し、競合は挿入時の
// ErrSeatAlreadyBooked として現れて呼び出し側が再割り当てする
type PessimisticAllocator struct {
	db *sqlx.DB
}

func NewPessimisticAllocator(db *sqlx.DB) *PessimisticAllocator {
	return &PessimisticAllocator{db: db}
}

func (a *PessimisticAllocator) Allocate(ctx context.Context, tx transaction.Tx, eventID int64, seatNumber string) (*seat.Seat, error) {
	if seatNumber != "" {
		return a.allocateExplicit(ctx, tx, eventID, seatNumber)
	}
	return a.allocateFirstFree(ctx, tx, eventID)
}

func (a *PessimisticAllocator) allocateExplicit(ctx context.Context, tx transaction.Tx, eventID int64, seatNumber string) (*seat.Seat, error) {
	sqlxTx := UnwrapTx(tx)

	query := `
		SELECT id, event_id, seat_number, created_at
		FROM seats
		WHERE event_id = $1 AND seat_number = $2
		FOR UPDATE
	`
	var row seatRow
	if err := sqlxTx.GetContext(ctx, &row, query, eventID, seatNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		if isLockTimeout(err) {
			return nil, booking.ErrBusy
		}
		return nil, fmt.Errorf("座席ロック取得に失敗: %w", err)
	}

	// 行ロック下での占有確認。2件以上は不変条件違反であり、補正せず中断する
	var active int
	if err := sqlxTx.GetContext(ctx, &active,
		`SELECT COUNT(*) FROM bookings WHERE seat_id = $1 AND status = 'active'`, row.ID); err != nil {
		return nil, fmt.Errorf("占有確認に失敗: %w", err)
	}
	switch {
	case active > 1:
		logger.Error("同一座席に複数の有効予約を検出",
			zap.Int64("seat_id", row.ID),
			zap.Int64("event_id", eventID),
			zap.Int("active_bookings", active),
		)
		return nil, booking.ErrExclusivityViolated
	case active == 1:
		return nil, seat.ErrSeatAlreadyBooked
	}

	return row.toEntity(), nil
}

func (a *PessimisticAllocator) allocateFirstFree(ctx context.Context, tx transaction.Tx, eventID int64) (*seat.Seat, error) {
	sqlxTx := UnwrapTx(tx)

	// イベント行のロックが「最初の空席」探索を直列化する
	var lockedID int64
	if err := sqlxTx.GetContext(ctx, &lockedID,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		if isLockTimeout(err) {
			return nil, booking.ErrBusy
		}
		return nil, fmt.Errorf("イベントロック取得に失敗: %w", err)
	}

	query := `
		SELECT s.id, s.event_id, s.seat_number, s.created_at
		FROM seats s
		WHERE s.event_id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.seat_id = s.id AND b.status = 'active'
		  )
		ORDER BY s.id
		LIMIT 1
	`
	var row seatRow
	if err := sqlxTx.GetContext(ctx, &row, query, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, a.classifyExhaustion(ctx, sqlxTx, eventID)
		}
		return nil, fmt.Errorf("空席探索に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// classifyExhaustion は「座席が存在しない」と「満席」を区別する
func (a *PessimisticAllocator) classifyExhaustion(ctx context.Context, tx *sqlx.Tx, eventID int64) error {
	var total int
	if err := tx.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM seats WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("座席数確認に失敗: %w", err)
	}
	if total == 0 {
		return seat.ErrNoSeatsForEvent
	}
	return booking.ErrEventFull
}

var _ allocation.Allocator = (*PessimisticAllocator)(nil)
