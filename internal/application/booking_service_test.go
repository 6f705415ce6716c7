package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/allocation"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
)

type bookingServiceMocks struct {
	txManager    *MockTxManager
	tx           *MockTx
	allocator    *MockAllocator
	bookingRepo  *MockBookingRepository
	seatRepo     *MockSeatRepository
	waitlistRepo *MockWaitlistRepository
	eventRepo    *MockEventRepository
	notifRepo    *MockNotificationRepository
	cache        *MockAvailabilityCache
	publisher    *MockNotificationPublisher
}

func newBookingService(t *testing.T) (*BookingService, *bookingServiceMocks) {
	t.Helper()
	m := &bookingServiceMocks{
		txManager:    new(MockTxManager),
		tx:           new(MockTx),
		allocator:    new(MockAllocator),
		bookingRepo:  new(MockBookingRepository),
		seatRepo:     new(MockSeatRepository),
		waitlistRepo: new(MockWaitlistRepository),
		eventRepo:    new(MockEventRepository),
		notifRepo:    new(MockNotificationRepository),
		cache:        new(MockAvailabilityCache),
		publisher:    new(MockNotificationPublisher),
	}
	promotion := NewPromotionPolicy(m.waitlistRepo, m.eventRepo, m.notifRepo)
	svc := NewBookingService(
		m.txManager,
		m.allocator,
		allocation.StrategyPessimistic,
		m.bookingRepo,
		m.seatRepo,
		m.waitlistRepo,
		promotion,
		m.cache,
		m.publisher,
		nil, // metrics
	)
	return svc, m
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("指定座席で予約できる", func(t *testing.T) {
		svc, m := newBookingService(t)
		allocated := &seat.Seat{ID: 10, EventID: 1, SeatNumber: "Seat-10"}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "Seat-10").Return(allocated, nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.cache.On("Invalidate", ctx, int64(1)).Return(nil)

		result, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1, SeatNumber: "Seat-10"})

		require.NoError(t, err)
		require.NotNil(t, result.Booking)
		assert.False(t, result.Waitlisted)
		assert.Equal(t, int64(10), result.Booking.SeatID)
		assert.Equal(t, booking.StatusActive, result.Booking.Status)
		m.bookingRepo.AssertExpectations(t)
		m.cache.AssertExpectations(t)
	})

	t.Run("自動選択で満席ならキャンセル待ちに登録される", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(nil, booking.ErrEventFull)
		m.waitlistRepo.On("ExistsByUserAndEvent", ctx, m.tx, int64(42), int64(1)).Return(false, nil)
		m.waitlistRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*waitlist.Entry")).Return(nil)
		m.tx.On("Commit").Return(nil)

		result, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1})

		require.NoError(t, err)
		assert.True(t, result.Waitlisted)
		assert.Nil(t, result.Booking)
		m.waitlistRepo.AssertExpectations(t)
		// 予約は作成されない
		m.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("既にキャンセル待ちの場合は重複登録できない", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(nil, booking.ErrEventFull)
		m.waitlistRepo.On("ExistsByUserAndEvent", ctx, m.tx, int64(42), int64(1)).Return(true, nil)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1})

		assert.ErrorIs(t, err, waitlist.ErrAlreadyWaitlisted)
		m.waitlistRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("指定座席が占有済みならキャンセル待ちへは倒さない", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "Seat-10").Return(nil, seat.ErrSeatAlreadyBooked)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1, SeatNumber: "Seat-10"})

		assert.ErrorIs(t, err, seat.ErrSeatAlreadyBooked)
		m.waitlistRepo.AssertNotCalled(t, "ExistsByUserAndEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("楽観方式の挿入時衝突はそのまま返す", func(t *testing.T) {
		svc, m := newBookingService(t)
		allocated := &seat.Seat{ID: 10, EventID: 1, SeatNumber: "Seat-10"}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "Seat-10").Return(allocated, nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.Anything).Return(seat.ErrSeatAlreadyBooked)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1, SeatNumber: "Seat-10"})

		assert.ErrorIs(t, err, seat.ErrSeatAlreadyBooked)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("自動選択の挿入時衝突は1回だけ取り直す", func(t *testing.T) {
		svc, m := newBookingService(t)
		first := &seat.Seat{ID: 10, EventID: 1, SeatNumber: "Seat-10"}
		second := &seat.Seat{ID: 11, EventID: 1, SeatNumber: "Seat-11"}

		// 指定席予約に座席を奪われた自動選択は、新しいトランザクションで次の空席を取る
		m.txManager.On("Begin", ctx).Return(m.tx, nil).Twice()
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(first, nil).Once()
		m.bookingRepo.On("Create", ctx, m.tx, mock.Anything).Return(seat.ErrSeatAlreadyBooked).Once()
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(second, nil).Once()
		m.bookingRepo.On("Create", ctx, m.tx, mock.Anything).Return(nil).Once()
		m.tx.On("Commit").Return(nil).Once()
		m.cache.On("Invalidate", ctx, int64(1)).Return(nil)

		result, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1})

		require.NoError(t, err)
		require.NotNil(t, result.Booking)
		assert.Equal(t, int64(11), result.Booking.SeatID)
		m.allocator.AssertNumberOfCalls(t, "Allocate", 2)
		m.bookingRepo.AssertExpectations(t)
	})

	t.Run("自動選択の取り直しは1回で打ち切る", func(t *testing.T) {
		svc, m := newBookingService(t)
		allocated := &seat.Seat{ID: 10, EventID: 1, SeatNumber: "Seat-10"}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(allocated, nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.Anything).Return(seat.ErrSeatAlreadyBooked)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1})

		assert.ErrorIs(t, err, seat.ErrSeatAlreadyBooked)
		m.allocator.AssertNumberOfCalls(t, "Allocate", 2)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("ロック待ちタイムアウトは一時的エラーとして返す", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(1), "").Return(nil, booking.ErrBusy)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 1})

		assert.ErrorIs(t, err, booking.ErrBusy)
	})

	t.Run("イベントが存在しない場合", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.allocator.On("Allocate", ctx, m.tx, int64(99), "").Return(nil, event.ErrEventNotFound)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 42, EventID: 99})

		assert.ErrorIs(t, err, event.ErrEventNotFound)
	})

	t.Run("ユーザーID未指定", func(t *testing.T) {
		svc, _ := newBookingService(t)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{EventID: 1})

		assert.ErrorIs(t, err, booking.ErrUserIDRequired)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("キャンセルと同時に先頭の待ちが繰り上がる", func(t *testing.T) {
		svc, m := newBookingService(t)
		active := &booking.Booking{ID: 5, UserID: 42, EventID: 1, SeatID: 10, Status: booking.StatusActive}
		entry := &waitlist.Entry{ID: 7, UserID: 100, EventID: 1}
		ev := &event.Event{ID: 1, Name: "コンサート"}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.bookingRepo.On("GetActiveForUpdate", ctx, m.tx, int64(5), int64(42)).Return(active, nil)
		m.bookingRepo.On("Update", ctx, m.tx, active).Return(nil)
		m.waitlistRepo.On("NextForPromotion", ctx, m.tx, int64(1)).Return(entry, nil)
		m.eventRepo.On("GetByID", ctx, int64(1)).Return(ev, nil)
		m.waitlistRepo.On("Delete", ctx, m.tx, int64(7)).Return(nil)
		m.notifRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*notification.Notification")).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.cache.On("Invalidate", ctx, int64(1)).Return(nil)
		m.publisher.On("PublishNotification", ctx, mock.AnythingOfType("*notification.Notification")).Return(nil)

		err := svc.CancelBooking(ctx, 5, 42)

		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, active.Status)
		m.notifRepo.AssertCalled(t, "Create", ctx, m.tx, mock.MatchedBy(func(n *notification.Notification) bool {
			return n.UserID == 100 && n.Message == "イベント『コンサート』に空席が出ました。今すぐ予約してください。"
		}))
		m.publisher.AssertExpectations(t)
	})

	t.Run("待ちがいなければ繰り上げは発生しない", func(t *testing.T) {
		svc, m := newBookingService(t)
		active := &booking.Booking{ID: 5, UserID: 42, EventID: 1, SeatID: 10, Status: booking.StatusActive}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.bookingRepo.On("GetActiveForUpdate", ctx, m.tx, int64(5), int64(42)).Return(active, nil)
		m.bookingRepo.On("Update", ctx, m.tx, active).Return(nil)
		m.waitlistRepo.On("NextForPromotion", ctx, m.tx, int64(1)).Return(nil, nil)
		m.tx.On("Commit").Return(nil)
		m.cache.On("Invalidate", ctx, int64(1)).Return(nil)

		err := svc.CancelBooking(ctx, 5, 42)

		require.NoError(t, err)
		m.notifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		m.publisher.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
	})

	t.Run("存在しない・キャンセル済みの予約は見つからない扱い", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.bookingRepo.On("GetActiveForUpdate", ctx, m.tx, int64(5), int64(42)).Return(nil, booking.ErrBookingNotFound)

		err := svc.CancelBooking(ctx, 5, 42)

		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("他ユーザーの予約はキャンセルできない", func(t *testing.T) {
		svc, m := newBookingService(t)

		// 所有者チェックはリポジトリの検索条件で行われ、不一致は見つからない扱いになる
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.bookingRepo.On("GetActiveForUpdate", ctx, m.tx, int64(5), int64(999)).Return(nil, booking.ErrBookingNotFound)

		err := svc.CancelBooking(ctx, 5, 999)

		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	})

	t.Run("通知発行の失敗はキャンセルを妨げない", func(t *testing.T) {
		svc, m := newBookingService(t)
		active := &booking.Booking{ID: 5, UserID: 42, EventID: 1, SeatID: 10, Status: booking.StatusActive}
		entry := &waitlist.Entry{ID: 7, UserID: 100, EventID: 1}
		ev := &event.Event{ID: 1, Name: "コンサート"}

		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.bookingRepo.On("GetActiveForUpdate", ctx, m.tx, int64(5), int64(42)).Return(active, nil)
		m.bookingRepo.On("Update", ctx, m.tx, active).Return(nil)
		m.waitlistRepo.On("NextForPromotion", ctx, m.tx, int64(1)).Return(entry, nil)
		m.eventRepo.On("GetByID", ctx, int64(1)).Return(ev, nil)
		m.waitlistRepo.On("Delete", ctx, m.tx, int64(7)).Return(nil)
		m.notifRepo.On("Create", ctx, m.tx, mock.Anything).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.cache.On("Invalidate", ctx, int64(1)).Return(nil)
		m.publisher.On("PublishNotification", ctx, mock.Anything).Return(assert.AnError)

		err := svc.CancelBooking(ctx, 5, 42)

		require.NoError(t, err)
	})
}

func TestBookingService_SweepPromotions(t *testing.T) {
	ctx := context.Background()

	t.Run("空席の数だけ繰り上げる", func(t *testing.T) {
		svc, m := newBookingService(t)
		ev := &event.Event{ID: 1, Name: "コンサート"}
		first := &waitlist.Entry{ID: 7, UserID: 100, EventID: 1}
		second := &waitlist.Entry{ID: 8, UserID: 101, EventID: 1}

		m.waitlistRepo.On("ListWaitingEventIDs", ctx).Return([]int64{1}, nil)
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.seatRepo.On("CountFreeByEventID", ctx, m.tx, int64(1)).Return(2, nil)
		m.waitlistRepo.On("NextForPromotion", ctx, m.tx, int64(1)).Return(first, nil).Once()
		m.waitlistRepo.On("NextForPromotion", ctx, m.tx, int64(1)).Return(second, nil).Once()
		m.eventRepo.On("GetByID", ctx, int64(1)).Return(ev, nil)
		m.waitlistRepo.On("Delete", ctx, m.tx, int64(7)).Return(nil)
		m.waitlistRepo.On("Delete", ctx, m.tx, int64(8)).Return(nil)
		m.notifRepo.On("Create", ctx, m.tx, mock.Anything).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.publisher.On("PublishNotification", ctx, mock.Anything).Return(nil)

		err := svc.SweepPromotions(ctx)

		require.NoError(t, err)
		m.notifRepo.AssertNumberOfCalls(t, "Create", 2)
		m.publisher.AssertNumberOfCalls(t, "PublishNotification", 2)
	})

	t.Run("空席がなければ何もしない", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.waitlistRepo.On("ListWaitingEventIDs", ctx).Return([]int64{1}, nil)
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("Rollback").Return(nil)
		m.seatRepo.On("CountFreeByEventID", ctx, m.tx, int64(1)).Return(0, nil)

		err := svc.SweepPromotions(ctx)

		require.NoError(t, err)
		m.waitlistRepo.AssertNotCalled(t, "NextForPromotion", mock.Anything, mock.Anything, mock.Anything)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("待ちイベントがなければ何もしない", func(t *testing.T) {
		svc, m := newBookingService(t)

		m.waitlistRepo.On("ListWaitingEventIDs", ctx).Return([]int64{}, nil)

		err := svc.SweepPromotions(ctx)

		require.NoError(t, err)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
