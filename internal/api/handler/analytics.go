package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AnalyticsHandler struct {
	analyticsService AnalyticsServiceInterface
}

func NewAnalyticsHandler(analyticsService AnalyticsServiceInterface) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Report godoc
// @Summary 予約統計レポートを取得
// @Description 台帳から導出した統計（総数、キャンセル率、日別件数、人気イベント）を返します（管理者のみ）
// @Tags analytics
// @Produce json
// @Success 200 {object} application.AnalyticsReport
// @Failure 403 {object} map[string]string
// @Router /admin/analytics [get]
func (h *AnalyticsHandler) Report(c echo.Context) error {
	report, err := h.analyticsService.Report(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}
