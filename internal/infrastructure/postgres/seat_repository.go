package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

type seatRow struct {
	ID         int64     `db:"id"`
	EventID    int64     `db:"event_id"`
	SeatNumber string    `db:"seat_number"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID:         r.ID,
		EventID:    r.EventID,
		SeatNumber: r.SeatNumber,
		CreatedAt:  r.CreatedAt,
	}
}

type seatOccupancyRow struct {
	seatRow
	Booked bool `db:"booked"`
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

// CreateBulk は複数の座席をマルチバリューINSERTで一括作成する
func (r *SeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)

	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, sqlxTx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SeatRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	query := `INSERT INTO seats (event_id, seat_number, created_at) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 3
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, s.EventID, s.SeatNumber, s.CreatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByEventID(ctx context.Context, eventID int64) ([]*seat.Seat, error) {
	query := `SELECT id, event_id, seat_number, created_at FROM seats WHERE event_id = $1 ORDER BY id`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// GetWithOccupancyByEventID は占有状態付きの座席一覧を取得する
// 占有は bookings の active 行からの導出であり、seats 側にフラグは持たない
func (r *SeatRepository) GetWithOccupancyByEventID(ctx context.Context, eventID int64) ([]*seat.WithOccupancy, error) {
	query := `
		SELECT s.id, s.event_id, s.seat_number, s.created_at,
		       EXISTS (
		           SELECT 1 FROM bookings b
		           WHERE b.seat_id = s.id AND b.status = 'active'
		       ) AS booked
		FROM seats s
		WHERE s.event_id = $1
		ORDER BY s.id
	`
	var rows []seatOccupancyRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seats := make([]*seat.WithOccupancy, len(rows))
	for i, row := range rows {
		seats[i] = &seat.WithOccupancy{Seat: *row.seatRow.toEntity(), Booked: row.Booked}
	}
	return seats, nil
}

// CountFreeByEventID は有効な予約のない座席数を返す
func (r *SeatRepository) CountFreeByEventID(ctx context.Context, tx transaction.Tx, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM seats s
		WHERE s.event_id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.seat_id = s.id AND b.status = 'active'
		  )
	`
	var count int
	var err error
	if tx != nil {
		err = UnwrapTx(tx).GetContext(ctx, &count, query, eventID)
	} else {
		err = r.db.GetContext(ctx, &count, query, eventID)
	}
	if err != nil {
		return 0, fmt.Errorf("空席数取得に失敗: %w", err)
	}
	return count, nil
}

var _ seat.Repository = (*SeatRepository)(nil)
