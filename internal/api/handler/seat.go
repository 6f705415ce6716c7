package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
)

type SeatHandler struct {
	seatService SeatServiceInterface
}

func NewSeatHandler(seatService SeatServiceInterface) *SeatHandler {
	return &SeatHandler{seatService: seatService}
}

type SeatResponse struct {
	ID         int64  `json:"id" example:"1"`
	EventID    int64  `json:"event_id" example:"1"`
	SeatNumber string `json:"seat_number" example:"Seat-1"`
	Booked     bool   `json:"booked" example:"false"`
}

type AvailabilityResponse struct {
	EventID   int64 `json:"event_id" example:"1"`
	FreeSeats int   `json:"free_seats" example:"42"`
}

// ListByEvent godoc
// @Summary イベントの座席一覧を取得
// @Description 座席の一覧を占有状態付きで取得します
// @Tags seats
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/seats [get]
func (h *SeatHandler) ListByEvent(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	seats, err := h.seatService.GetEventSeats(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]SeatResponse, len(seats))
	for i, s := range seats {
		responses[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, responses)
}

func toSeatResponse(s *seat.WithOccupancy) SeatResponse {
	return SeatResponse{
		ID:         s.ID,
		EventID:    s.EventID,
		SeatNumber: s.SeatNumber,
		Booked:     s.Booked,
	}
}

// Availability godoc
// @Summary イベントの空席数を取得
// @Description 空席数を取得します（キャッシュされた値を返すことがあります）
// @Tags seats
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/availability [get]
func (h *SeatHandler) Availability(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	count, err := h.seatService.CountFreeSeats(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{EventID: eventID, FreeSeats: count})
}
