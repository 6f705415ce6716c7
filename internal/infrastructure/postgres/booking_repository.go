package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

type bookingRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	EventID   int64     `db:"event_id"`
	SeatID    int64     `db:"seat_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID:        r.ID,
		UserID:    r.UserID,
		EventID:   r.EventID,
		SeatID:    r.SeatID,
		Status:    booking.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type bookingDetailsRow struct {
	bookingRow
	EventName  string `db:"event_name"`
	Venue      string `db:"venue"`
	SeatNumber string `db:"seat_number"`
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する
// 有効予約の部分一意インデックス違反は座席の競合として返す
// （行ロック方式でも保険として効く。楽観方式ではこれが正当性の要）
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO bookings (user_id, event_id, seat_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		b.UserID, b.EventID, b.SeatID, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return seat.ErrSeatAlreadyBooked
		}
		if isLockTimeout(err) {
			return booking.ErrBusy
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// GetActiveForUpdate は予約IDと所有ユーザーで有効予約を取得し、行ロックを取る
func (r *BookingRepository) GetActiveForUpdate(ctx context.Context, tx transaction.Tx, id, userID int64) (*booking.Booking, error) {
	sqlxTx := UnwrapTx(tx)
	query := `
		SELECT id, user_id, event_id, seat_id, status, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		FOR UPDATE
	`
	var row bookingRow
	if err := sqlxTx.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		if isLockTimeout(err) {
			return nil, booking.ErrBusy
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// Update は予約の状態を更新する
func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// GetDetailsByUserID はユーザーの有効予約一覧をイベント・座席情報付きで取得する
func (r *BookingRepository) GetDetailsByUserID(ctx context.Context, userID int64) ([]*booking.Details, error) {
	query := `
		SELECT b.id, b.user_id, b.event_id, b.seat_id, b.status, b.created_at, b.updated_at,
		       e.name AS event_name, e.venue, s.seat_number
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN seats s ON s.id = b.seat_id
		WHERE b.user_id = $1 AND b.status = 'active'
		ORDER BY b.created_at DESC, b.id DESC
	`
	var rows []bookingDetailsRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Details, len(rows))
	for i, row := range rows {
		result[i] = &booking.Details{
			Booking:    *row.bookingRow.toEntity(),
			EventName:  row.EventName,
			Venue:      row.Venue,
			SeatNumber: row.SeatNumber,
		}
	}
	return result, nil
}

// HasActiveByUserAndEvent はユーザーがイベントに有効予約を持つかを返す
func (r *BookingRepository) HasActiveByUserAndEvent(ctx context.Context, tx transaction.Tx, userID, eventID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2 AND status = 'active')`
	var exists bool
	var err error
	if tx != nil {
		err = UnwrapTx(tx).GetContext(ctx, &exists, query, userID, eventID)
	} else {
		err = r.db.GetContext(ctx, &exists, query, userID, eventID)
	}
	if err != nil {
		return false, fmt.Errorf("予約確認に失敗: %w", err)
	}
	return exists, nil
}

// HasActiveByEventID はイベントに有効予約が存在するかを返す
func (r *BookingRepository) HasActiveByEventID(ctx context.Context, tx transaction.Tx, eventID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE event_id = $1 AND status = 'active')`
	var exists bool
	var err error
	if tx != nil {
		err = UnwrapTx(tx).GetContext(ctx, &exists, query, eventID)
	} else {
		err = r.db.GetContext(ctx, &exists, query, eventID)
	}
	if err != nil {
		return false, fmt.Errorf("予約確認に失敗: %w", err)
	}
	return exists, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
