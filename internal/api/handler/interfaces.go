package handler

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/application"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id int64) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, id int64, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	GetEventSeats(ctx context.Context, eventID int64) ([]*seat.WithOccupancy, error)
	CountFreeSeats(ctx context.Context, eventID int64) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*application.BookingResult, error)
	CancelBooking(ctx context.Context, bookingID, userID int64) error
	GetUserBookings(ctx context.Context, userID int64) ([]*booking.Details, error)
}

// WaitlistServiceInterface はキャンセル待ちサービスのインターフェース
type WaitlistServiceInterface interface {
	GetUserEntries(ctx context.Context, userID int64) ([]*waitlist.Entry, error)
	LeaveWaitlist(ctx context.Context, entryID, userID int64) error
}

// NotificationServiceInterface は通知サービスのインターフェース
type NotificationServiceInterface interface {
	GetUserNotifications(ctx context.Context, userID int64) ([]*notification.Notification, error)
}

// AnalyticsServiceInterface は統計サービスのインターフェース
type AnalyticsServiceInterface interface {
	Report(ctx context.Context) (*application.AnalyticsReport, error)
}
