package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-inventory/internal/application"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
	seatService  SeatServiceInterface
}

func NewEventHandler(eventService EventServiceInterface, seatService SeatServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService, seatService: seatService}
}

type CreateEventRequest struct {
	Name       string `json:"name" validate:"required" example:"東京ドームコンサート2026"`
	Venue      string `json:"venue" validate:"required" example:"東京ドーム"`
	StartAt    string `json:"start_at" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	EndAt      string `json:"end_at" validate:"required" example:"2026-12-31T21:00:00+09:00"`
	TotalSeats int    `json:"total_seats" validate:"gte=0" example:"50000"`
}

type EventResponse struct {
	ID         int64  `json:"id" example:"1"`
	Name       string `json:"name" example:"東京ドームコンサート2026"`
	Venue      string `json:"venue" example:"東京ドーム"`
	StartAt    string `json:"start_at" example:"2026-12-31T18:00:00+09:00"`
	EndAt      string `json:"end_at" example:"2026-12-31T21:00:00+09:00"`
	TotalSeats int    `json:"total_seats" example:"50000"`
	CreatedAt  string `json:"created_at" example:"2026-01-06T10:00:00+09:00"`
	UpdatedAt  string `json:"updated_at" example:"2026-01-06T10:00:00+09:00"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:         e.ID,
		Name:       e.Name,
		Venue:      e.Venue,
		StartAt:    e.StartAt.Format(time.RFC3339),
		EndAt:      e.EndAt.Format(time.RFC3339),
		TotalSeats: e.TotalSeats,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントと座席を作成します（管理者のみ）
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "開始時刻の形式が不正です"})
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "終了時刻の形式が不正です"})
	}

	input := application.CreateEventInput{
		Name:       req.Name,
		Venue:      req.Venue,
		StartAt:    startAt,
		EndAt:      endAt,
		TotalSeats: req.TotalSeats,
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), input)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description イベントの一覧を取得します
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	events, err := h.eventService.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]*EventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, responses)
}

type UpdateEventRequest struct {
	Name    string `json:"name" validate:"required"`
	Venue   string `json:"venue" validate:"required"`
	StartAt string `json:"start_at" validate:"required"`
	EndAt   string `json:"end_at" validate:"required"`
}

// Update godoc
// @Summary イベントを更新
// @Description 指定IDのイベントを更新します（座席数は変更不可、管理者のみ）
// @Tags events
// @Accept json
// @Produce json
// @Param id path int true "イベントID"
// @Param request body UpdateEventRequest true "イベント情報"
// @Success 200 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "リクエストの形式が不正です"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "開始時刻の形式が不正です"})
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "終了時刻の形式が不正です"})
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), id, application.UpdateEventInput{
		Name:    req.Name,
		Venue:   req.Venue,
		StartAt: startAt,
		EndAt:   endAt,
	})
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete godoc
// @Summary イベントを削除
// @Description 指定IDのイベントを削除します。有効な予約がある場合は削除できません（管理者のみ）
// @Tags events
// @Param id path int true "イベントID"
// @Success 204
// @Failure 400 {object} map[string]string "有効な予約が残っている"
// @Failure 404 {object} map[string]string
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.eventService.DeleteEvent(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, event.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "イベントが見つかりません"})
		case errors.Is(err, event.ErrEventHasActiveBookings):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "有効な予約があるイベントは削除できません"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
