package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// cronジョブ用。Authorization: Bearer <CRON_SECRET> だけ通す。secretが空なら全部拒否。
func CronSecretGuard(secret string) echo.MiddlewareFunc {
	want := []byte("Bearer " + secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get("Authorization"))
			if secret == "" || subtle.ConstantTimeCompare(got, want) != 1 {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized"))
			}
			return next(c)
		}
	}
}
