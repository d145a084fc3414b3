package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/hash"
	"github.com/avdeev/storefront/internal/logging"
	"github.com/avdeev/storefront/internal/models"
	"github.com/avdeev/storefront/internal/mykafka"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"notice": TakeNotice(c)})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and name are required")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		SetNotice(c, "User already exists. Please try with another email.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	// The first account ever created owns the store.
	role := "user"
	var count int64
	if err := h.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if count == 0 {
		role = "admin"
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
		Name:         req.Name,
		Role:         role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	if err := h.issueSession(c, &user); err != nil {
		return err
	}

	h.publish(c, map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return c.Redirect(http.StatusSeeOther, "/store")
}

func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"notice": TakeNotice(c)})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		SetNotice(c, "This email does not exist. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		SetNotice(c, "Password incorrect. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if err := h.issueSession(c, &user); err != nil {
		return err
	}

	h.publish(c, map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return c.Redirect(http.StatusSeeOther, "/store")
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if refreshCookie, err := c.Cookie("refreshToken"); err == nil {
		if err := h.DB.Model(&models.RefreshToken{}).
			Where("token = ?", refreshCookie.Value).
			Update("revoked", true).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(CreateCookie("refreshToken", "", "/", expired))

	return c.Redirect(http.StatusSeeOther, "/")
}

// issueSession signs the access/refresh token pair for the user, persists
// the refresh token and sets both session cookies.
func (h *AuthHandler) issueSession(c echo.Context, user *models.User) error {
	accessExp := time.Now().Add(AccessTTL)
	accessClaims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  accessExp.Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}

	refreshExp := time.Now().Add(RefreshTTL)
	refreshClaims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  refreshExp.Unix(),
		"typ":  "refresh",
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(h.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}

	refreshModel := models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: refreshExp.Unix(),
		Revoked:   false,
	}
	if err := h.DB.Create(&refreshModel).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	c.SetCookie(CreateCookie("accessToken", accessToken, "/", accessExp))
	c.SetCookie(CreateCookie("refreshToken", refreshToken, "/", refreshExp))
	return nil
}

func (h *AuthHandler) publish(c echo.Context, event map[string]interface{}, key string) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
