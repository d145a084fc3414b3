package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avdeev/storefront/internal/handlers"
)

// AdminOnly terminates with 403 for every caller whose session does not
// carry the admin role, anonymous callers included.
func (t *TokenService) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, role, err := t.CheckCookie(c)
		if err != nil || role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden)
		}

		if newRefresh != "" {
			c.SetCookie(handlers.CreateCookie("accessToken", newAccess, "/", time.Now().Add(handlers.AccessTTL)))
			c.SetCookie(handlers.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(handlers.RefreshTTL)))
		}

		return next(c)
	}
}
