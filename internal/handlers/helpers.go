package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

const noticeCookie = "notice"

func CreateCookie(name string, value string, path string, exp_time time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp_time,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return cookie
}

// SetNotice stores a one-shot flash message delivered with the next page.
func SetNotice(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:     noticeCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TakeNotice returns the pending flash message, if any, and clears it.
func TakeNotice(c echo.Context) string {
	ck, err := c.Cookie(noticeCookie)
	if err != nil || ck.Value == "" {
		return ""
	}
	c.SetCookie(CreateCookie(noticeCookie, "", "/", time.Now().Add(-time.Hour)))
	msg, _ := url.QueryUnescape(ck.Value)
	return msg
}

func currentUserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return id, nil
}

func currentRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}
