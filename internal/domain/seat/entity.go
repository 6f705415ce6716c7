package seat

import "time"

// Seat は座席エンティティを表す
// 予約済みフラグは持たない。占有状態は bookings 台帳から常に導出する
type Seat struct {
	ID         int64
	EventID    int64
	SeatNumber string
	CreatedAt  time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(eventID int64, seatNumber string) *Seat {
	return &Seat{
		EventID:    eventID,
		SeatNumber: seatNumber,
		CreatedAt:  time.Now(),
	}
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.EventID == 0 {
		return ErrEventIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	return nil
}

// WithOccupancy は占有状態を付加した座席ビュー
type WithOccupancy struct {
	Seat
	Booked bool
}
