package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/allocation"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// OptimisticAllocator は行ロックが使えないストア向けのフォールバック実装
// 占有確認はロックなしで行い、正当性は bookings の部分一意インデックス
// （seat_id, status='active' のみ対象）の挿入時違反に委ねる。
// 違反は予約リポジトリが seat.ErrSeatAlreadyBooked に写像する
type OptimisticAllocator struct {
	db *sqlx.DB
}

func NewOptimisticAllocator(db *sqlx.DB) *OptimisticAllocator {
	return &OptimisticAllocator{db: db}
}

func (a *OptimisticAllocator) Allocate(ctx context.Context, tx transaction.Tx, eventID int64, seatNumber string) (*seat.Seat, error) {
	if seatNumber != "" {
		return a.allocateExplicit(ctx, tx, eventID, seatNumber)
	}
	return a.allocateFirstFree(ctx, tx, eventID)
}

func (a *OptimisticAllocator) allocateExplicit(ctx context.Context, tx transaction.Tx, eventID int64, seatNumber string) (*seat.Seat, error) {
	sqlxTx := UnwrapTx(tx)

	var row seatRow
	query := `SELECT id, event_id, seat_number, created_at FROM seats WHERE event_id = $1 AND seat_number = $2`
	if err := sqlxTx.GetContext(ctx, &row, query, eventID, seatNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}

	// ロックなしの事前確認。すり抜けた競合は挿入時の一意制約違反で検出される
	var occupied bool
	if err := sqlxTx.GetContext(ctx, &occupied,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE seat_id = $1 AND status = 'active')`, row.ID); err != nil {
		return nil, fmt.Errorf("占有確認に失敗: %w", err)
	}
	if occupied {
		return nil, seat.ErrSeatAlreadyBooked
	}

	return row.toEntity(), nil
}

func (a *OptimisticAllocator) allocateFirstFree(ctx context.Context, tx transaction.Tx, eventID int64) (*seat.Seat, error) {
	sqlxTx := UnwrapTx(tx)

	var exists bool
	if err := sqlxTx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID); err != nil {
		return nil, fmt.Errorf("イベント確認に失敗: %w", err)
	}
	if !exists {
		return nil, event.ErrEventNotFound
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
			var total int
			if err := sqlxTx.GetContext(ctx, &total,
				`SELECT COUNT(*) FROM seats WHERE event_id = $1`, eventID); err != nil {
				return nil, fmt.Errorf("座席数確認に失敗: %w", err)
			}
			if total == 0 {
				return nil, seat.ErrNoSeatsForEvent
			}
			return nil, booking.ErrEventFull
		}
		return nil, fmt.Errorf("空席探索に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// NewAllocator は設定された方式のアロケーターを作成する
// 方式は起動時に一度だけ選ばれ、実行時に分岐しない
func NewAllocator(db *sqlx.DB, strategy allocation.Strategy) (allocation.Allocator, error) {
	switch strategy {
	case allocation.StrategyPessimistic:
		return NewPessimisticAllocator(db), nil
	case allocation.StrategyOptimistic:
		return NewOptimisticAllocator(db), nil
	default:
		return nil, fmt.Errorf("未知の割り当て方式です: %q", strategy)
	}
}

var _ allocation.Allocator = (*OptimisticAllocator)(nil)
