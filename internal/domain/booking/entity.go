package booking

import "time"

// Status は予約の状態を表す
// active と cancelled の2状態のみ。キャンセルは状態遷移であり、行の削除は行わない
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Booking は予約エンティティを表す
// 台帳は追記型であり、座席の占有はこの台帳の active 行からのみ導出される
type Booking struct {
	ID        int64
	UserID    int64
	EventID   int64
	SeatID    int64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBooking は新しい有効予約を作成する
func NewBooking(userID, eventID, seatID int64) *Booking {
	now := time.Now()
	return &Booking{
		UserID:    userID,
		EventID:   eventID,
		SeatID:    seatID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive は予約が有効かを返す
func (b *Booking) IsActive() bool {
	return b.Status == StatusActive
}

// Cancel は予約をキャンセル状態に遷移させる
// 状態遷移の検証はここで一元的に行う
func (b *Booking) Cancel() error {
	if b.Status != StatusActive {
		return ErrBookingNotActive
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == 0 {
		return ErrUserIDRequired
	}
	if b.EventID == 0 {
		return ErrEventIDRequired
	}
	if b.SeatID == 0 {
		return ErrSeatIDRequired
	}
	return nil
}

// Details はユーザー向け一覧に使う、イベント・座席情報付きの予約ビュー
type Details struct {
	Booking
	EventName  string
	Venue      string
	SeatNumber string
}
