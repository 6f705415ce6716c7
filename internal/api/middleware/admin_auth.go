package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminAuth は管理者用ルートのガード。
// 認証基盤は持たず、ゲートウェイが付与する X-User-Role ヘッダーを信頼する前提
func AdminAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-User-Role") != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}
