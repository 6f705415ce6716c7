package event

import "time"

// Event はイベントエンティティを表す
// 座席はイベント作成時に一括生成され、以降は増減しない
type Event struct {
	ID         int64
	Name       string
	Venue      string
	StartAt    time.Time
	EndAt      time.Time
	TotalSeats int // seats テーブルから導出される（events 行には保存しない）
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
func NewEvent(name, venue string, startAt, endAt time.Time, totalSeats int) *Event {
	now := time.Now()
	return &Event{
		Name:       name,
		Venue:      venue,
		StartAt:    startAt,
		EndAt:      endAt,
		TotalSeats: totalSeats,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// Validate はイベントの検証を行う
// 座席数 0 のイベントは許容する（全席キャンセル待ちで運用されるケースがある）
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.Venue == "" {
		return ErrVenueRequired
	}
	if e.TotalSeats < 0 {
		return ErrInvalidTotalSeats
	}
	if !e.StartAt.Before(e.EndAt) {
		return ErrInvalidEventTime
	}
	return nil
}
