package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type NotificationResponse struct {
	ID        int64  `json:"id" example:"1"`
	UserID    int64  `json:"user_id" example:"42"`
	Message   string `json:"message" example:"イベント『東京ドームコンサート2026』に空席が出ました。今すぐ予約してください。"`
	IsRead    bool   `json:"is_read" example:"false"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// GetUserNotifications godoc
// @Summary 自分の通知一覧を取得
// @Description 繰り上げ通知などを新しい順で取得します
// @Tags notifications
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 200 {array} NotificationResponse
// @Failure 401 {object} map[string]string
// @Router /users/me/notifications [get]
func (h *NotificationHandler) GetUserNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	notifications, err := h.notificationService.GetUserNotifications(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	responses := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toNotificationResponse(n)
	}
	return c.JSON(http.StatusOK, responses)
}
