package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avdeev/storefront/internal/handlers"
)

// RequireLogin gates cart and checkout routes: anonymous callers are
// sent to the login page with a notice.
func (t *TokenService) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, _, err := t.CheckCookie(c)
		if err != nil {
			handlers.SetNotice(c, "You need to login or register to continue.")
			return c.Redirect(http.StatusSeeOther, "/login")
		}

		if newRefresh != "" {
			c.SetCookie(handlers.CreateCookie("accessToken", newAccess, "/", time.Now().Add(handlers.AccessTTL)))
			c.SetCookie(handlers.CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(handlers.RefreshTTL)))
		}

		return next(c)
	}
}
