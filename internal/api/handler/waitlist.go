package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
)

type WaitlistHandler struct {
	waitlistService WaitlistServiceInterface
}

func NewWaitlistHandler(waitlistService WaitlistServiceInterface) *WaitlistHandler {
	return &WaitlistHandler{waitlistService: waitlistService}
}

type WaitlistEntryResponse struct {
	ID        int64  `json:"id" example:"1"`
	UserID    int64  `json:"user_id" example:"42"`
	EventID   int64  `json:"event_id" example:"1"`
	CreatedAt string `json:"created_at"`
}

func toWaitlistEntryResponse(e *waitlist.Entry) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		EventID:   e.EventID,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// GetUserEntries godoc
// @Summary 自分のキャンセル待ち一覧を取得
// @Tags waitlists
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 200 {array} WaitlistEntryResponse
// @Failure 401 {object} map[string]string
// @Router /waitlists/me [get]
func (h *WaitlistHandler) GetUserEntries(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	entries, err := h.waitlistService.GetUserEntries(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]WaitlistEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = toWaitlistEntryResponse(e)
	}
	return c.JSON(http.StatusOK, responses)
}

// Leave godoc
// @Summary キャンセル待ちから離脱
// @Description 本人のキャンセル待ちエントリを削除します
// @Tags waitlists
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "エントリID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /waitlists/{id} [delete]
func (h *WaitlistHandler) Leave(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	entryID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.waitlistService.LeaveWaitlist(c.Request().Context(), entryID, userID); err != nil {
		if errors.Is(err, waitlist.ErrEntryNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "キャンセル待ちエントリが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
