package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Venue      string    `db:"venue"`
	StartAt    time.Time `db:"start_at"`
	EndAt      time.Time `db:"end_at"`
	TotalSeats int       `db:"total_seats"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:         r.ID,
		Name:       r.Name,
		Venue:      r.Venue,
		StartAt:    r.StartAt,
		EndAt:      r.EndAt,
		TotalSeats: r.TotalSeats,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Version:    r.Version,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
// total_seats は列ではなく seats テーブルからの導出値として読む
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する（座席生成と同一トランザクション）
func (r *EventRepository) Create(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO events (name, venue, start_at, end_at, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query,
		e.Name, e.Venue, e.StartAt, e.EndAt, e.CreatedAt, e.UpdatedAt, e.Version,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	query := `
		SELECT e.id, e.name, e.venue, e.start_at, e.end_at,
		       (SELECT COUNT(*) FROM seats s WHERE s.event_id = e.id) AS total_seats,
		       e.created_at, e.updated_at, e.version
		FROM events e
		WHERE e.id = $1
	`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `
		SELECT e.id, e.name, e.venue, e.start_at, e.end_at,
		       (SELECT COUNT(*) FROM seats s WHERE s.event_id = e.id) AS total_seats,
		       e.created_at, e.updated_at, e.version
		FROM events e
		ORDER BY e.start_at, e.id
		LIMIT $1 OFFSET $2
	`
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントを更新する（楽観的ロック、座席数は対象外）
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET name = $1, venue = $2, start_at = $3, end_at = $4, updated_at = $5, version = version + 1
		WHERE id = $6 AND version = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		e.Name, e.Venue, e.StartAt, e.EndAt, time.Now(), e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}

	e.Version++
	return nil
}

// Delete はイベントを削除する
// 座席・予約・キャンセル待ちは外部キーの ON DELETE CASCADE で一緒に消える
// 有効予約ガードは呼び出し側（サービス層）が同一トランザクション内で行う
func (r *EventRepository) Delete(ctx context.Context, tx transaction.Tx, id int64) error {
	sqlxTx := UnwrapTx(tx)
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
