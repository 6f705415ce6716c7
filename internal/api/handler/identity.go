package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID は X-User-ID ヘッダーから呼び出しユーザーを特定する。
// 認証基盤は持たず、ゲートウェイが付与するヘッダーを信頼する前提
func currentUserID(c echo.Context) (int64, error) {
	raw := c.Request().Header.Get("X-User-ID")
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "無効なユーザーIDです")
	}
	return id, nil
}

// pathID はパスパラメータを数値IDとして解釈する
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "無効なIDです")
	}
	return id, nil
}
