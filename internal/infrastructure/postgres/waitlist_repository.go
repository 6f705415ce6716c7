package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
)

type waitlistRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	EventID   int64     `db:"event_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *waitlistRow) toEntity() *waitlist.Entry {
	return &waitlist.Entry{
		ID:        r.ID,
		UserID:    r.UserID,
		EventID:   r.EventID,
		CreatedAt: r.CreatedAt,
	}
}

type WaitlistRepository struct{ db *sqlx.DB }

func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Create は新しいエントリを作成する
func (r *WaitlistRepository) Create(ctx context.Context, tx transaction.Tx, e *waitlist.Entry) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO waitlist_entries (user_id, event_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query, e.UserID, e.EventID, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return waitlist.ErrAlreadyWaitlisted
		}
		return fmt.Errorf("キャンセル待ち登録に失敗: %w", err)
	}
	return nil
}

// ExistsByUserAndEvent はユーザーのエントリが既にあるかを返す
func (r *WaitlistRepository) ExistsByUserAndEvent(ctx context.Context, tx transaction.Tx, userID, eventID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM waitlist_entries WHERE user_id = $1 AND event_id = $2)`
	var exists bool
	var err error
	if tx != nil {
		err = UnwrapTx(tx).GetContext(ctx, &exists, query, userID, eventID)
	} else {
		err = r.db.GetContext(ctx, &exists, query, userID, eventID)
	}
	if err != nil {
		return false, fmt.Errorf("キャンセル待ち確認に失敗: %w", err)
	}
	return exists, nil
}

// NextForPromotion は昇格対象の先頭エントリを取得し行ロックを取る
// FIFO（作成時刻昇順、同時刻はID昇順）。そのイベントに有効予約を
// 既に持つユーザーは飛ばす。該当なしは (nil, nil)
func (r *WaitlistRepository) NextForPromotion(ctx context.Context, tx transaction.Tx, eventID int64) (*waitlist.Entry, error) {
	sqlxTx := UnwrapTx(tx)
	query := `
		SELECT w.id, w.user_id, w.event_id, w.created_at
		FROM waitlist_entries w
		WHERE w.event_id = $1
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.event_id = w.event_id AND b.user_id = w.user_id AND b.status = 'active'
		  )
		ORDER BY w.created_at, w.id
		LIMIT 1
		FOR UPDATE OF w
	`
	var row waitlistRow
	if err := sqlxTx.GetContext(ctx, &row, query, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if isLockTimeout(err) {
			return nil, booking.ErrBusy
		}
		return nil, fmt.Errorf("昇格対象の取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// Delete はエントリを削除する（昇格時）
func (r *WaitlistRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlxTx := UnwrapTx(tx)
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM waitlist_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("キャンセル待ち削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return waitlist.ErrEntryNotFound
	}
	return nil
}

// DeleteByIDAndUser は所有ユーザー本人のエントリを削除する
func (r *WaitlistRepository) DeleteByIDAndUser(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM waitlist_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("キャンセル待ち削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return waitlist.ErrEntryNotFound
	}
	return nil
}

// GetByUserID はユーザーのエントリ一覧を取得する
func (r *WaitlistRepository) GetByUserID(ctx context.Context, userID int64) ([]*waitlist.Entry, error) {
	query := `SELECT id, user_id, event_id, created_at FROM waitlist_entries WHERE user_id = $1 ORDER BY created_at, id`
	var rows []waitlistRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("キャンセル待ち一覧取得に失敗: %w", err)
	}
	entries := make([]*waitlist.Entry, len(rows))
	for i, row := range rows {
		entries[i] = row.toEntity()
	}
	return entries, nil
}

// ListWaitingEventIDs はエントリが存在するイベントIDの一覧を返す
func (r *WaitlistRepository) ListWaitingEventIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT event_id FROM waitlist_entries ORDER BY event_id`); err != nil {
		return nil, fmt.Errorf("キャンセル待ちイベント一覧取得に失敗: %w", err)
	}
	return ids, nil
}

var _ waitlist.Repository = (*WaitlistRepository)(nil)
