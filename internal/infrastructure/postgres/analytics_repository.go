package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DailyCount は日別（UTC）の予約件数
type DailyCount struct {
	Date     string `db:"date"`
	Bookings int    `db:"bookings"`
}

// EventOccupancy はイベントごとの座席数と有効予約数
type EventOccupancy struct {
	EventID     int64  `db:"event_id"`
	EventName   string `db:"event_name"`
	TotalSeats  int    `db:"total_seats"`
	BookedSeats int    `db:"booked_seats"`
}

// AnalyticsRepository は統計用の読み取り専用クエリを提供する
// 台帳からの導出のみで、独自の状態は持たない
type AnalyticsRepository struct{ db *sqlx.DB }

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CountBookings は全期間の予約総数（ステータス不問）を返す
func (r *AnalyticsRepository) CountBookings(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings`); err != nil {
		return 0, fmt.Errorf("予約総数取得に失敗: %w", err)
	}
	return count, nil
}

// CountCancelledBookings はキャンセル済み予約数を返す
func (r *AnalyticsRepository) CountCancelledBookings(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM bookings WHERE status = 'cancelled'`); err != nil {
		return 0, fmt.Errorf("キャンセル数取得に失敗: %w", err)
	}
	return count, nil
}

// DailyBookingCounts は予約の作成日（UTC）ごとの件数を日付昇順で返す
func (r *AnalyticsRepository) DailyBookingCounts(ctx context.Context) ([]DailyCount, error) {
	query := `
		SELECT to_char((created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS date,
		       COUNT(*) AS bookings
		FROM bookings
		GROUP BY (created_at AT TIME ZONE 'UTC')::date
		ORDER BY (created_at AT TIME ZONE 'UTC')::date
	`
	var rows []DailyCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("日別予約数取得に失敗: %w", err)
	}
	return rows, nil
}

// EventOccupancies は全イベントの座席数と有効予約数をイベントID昇順で返す
func (r *AnalyticsRepository) EventOccupancies(ctx context.Context) ([]EventOccupancy, error) {
	query := `
		SELECT e.id AS event_id,
		       e.name AS event_name,
		       (SELECT COUNT(*) FROM seats s WHERE s.event_id = e.id) AS total_seats,
		       (SELECT COUNT(*) FROM bookings b WHERE b.event_id = e.id AND b.status = 'active') AS booked_seats
		FROM events e
		ORDER BY e.id
	`
	var rows []EventOccupancy
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("イベント利用状況取得に失敗: %w", err)
	}
	return rows, nil
}
