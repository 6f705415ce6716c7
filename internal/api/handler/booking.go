package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-inventory/internal/application"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/booking"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
)

type BookingHandler struct {
	bookingService BookingServiceInterface
}

func NewBookingHandler(bookingService BookingServiceInterface) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type CreateBookingRequest struct {
	EventID int64 `json:"event_id" validate:"required,gt=0" example:"1"`
	// SeatNumber を省略すると空席を自動選択する
	SeatNumber string `json:"seat_number" example:"Seat-12"`
}

type BookingResponse struct {
	ID        int64  `json:"id" example:"1"`
	UserID    int64  `json:"user_id" example:"42"`
	EventID   int64  `json:"event_id" example:"1"`
	SeatID    int64  `json:"seat_id" example:"12"`
	Status    string `json:"status" example:"active"`
	CreatedAt string `json:"created_at"`
}

type WaitlistedResponse struct {
	Detail string `json:"detail" example:"イベントは満席です。キャンセル待ちリストに追加されました。"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		SeatID:    b.SeatID,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 座席を1つ割り当てて予約します。満席の場合はキャンセル待ちに登録されます
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Success 202 {object} WaitlistedResponse "満席のためキャンセル待ちに登録"
// @Failure 400 {object} map[string]string "座席が占有済み、または既にキャンセル待ち"
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string "混雑による一時的な失敗"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.bookingService.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:     userID,
		EventID:    req.EventID,
		SeatNumber: req.SeatNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		case errors.Is(err, seat.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "座席が見つかりません"})
		case errors.Is(err, seat.ErrNoSeatsForEvent):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "このイベントには座席がありません"})
		case errors.Is(err, seat.ErrSeatAlreadyBooked):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "指定された座席は既に予約されています"})
		case errors.Is(err, waitlist.ErrAlreadyWaitlisted):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "既にキャンセル待ちに登録されています"})
		case errors.Is(err, booking.ErrBusy):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "混雑しています。しばらくしてから再度お試しください"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	if result.Waitlisted {
		return c.JSON(http.StatusAccepted, WaitlistedResponse{
			Detail: "イベントは満席です。キャンセル待ちリストに追加されました。",
		})
	}
	return c.JSON(http.StatusCreated, toBookingResponse(result.Booking))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、キャンセル待ちがいれば先頭を繰り上げます
// @Tags bookings
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "予約ID"
// @Success 204
// @Failure 404 {object} map[string]string "予約が存在しない、またはキャンセル済み"
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.bookingService.CancelBooking(c.Request().Context(), bookingID, userID); err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "予約が見つかりません"})
		case errors.Is(err, booking.ErrBookingNotActive):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "予約が見つかりません"})
		case errors.Is(err, booking.ErrBusy):
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "混雑しています。しばらくしてから再度お試しください"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

type BookingDetailsResponse struct {
	BookingResponse
	EventName  string `json:"event_name" example:"東京ドームコンサート2026"`
	Venue      string `json:"venue" example:"東京ドーム"`
	SeatNumber string `json:"seat_number" example:"Seat-12"`
}

// GetUserBookings godoc
// @Summary 自分の予約一覧を取得
// @Description ログインユーザーの有効な予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 200 {array} BookingDetailsResponse
// @Failure 401 {object} map[string]string
// @Router /users/me/bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	bookings, err := h.bookingService.GetUserBookings(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]BookingDetailsResponse, len(bookings))
	for i, b := range bookings {
		responses[i] = BookingDetailsResponse{
			BookingResponse: toBookingResponse(&b.Booking),
			EventName:       b.EventName,
			Venue:           b.Venue,
			SeatNumber:      b.SeatNumber,
		}
	}
	return c.JSON(http.StatusOK, responses)
}
