package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/logging"
	"github.com/avdeev/storefront/internal/models"
	"github.com/avdeev/storefront/internal/mykafka"
	"github.com/avdeev/storefront/internal/payments"
)

type CheckoutHandler struct {
	DB       *gorm.DB
	Provider payments.Provider
	Producer *mykafka.Producer
}

// Checkout collapses the caller's cart into one payment-provider line
// item (joined names, summed price) and redirects to the hosted page.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var lines []models.CartLine
	if err := h.DB.Where("user_id = ?", userID).Find(&lines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if len(lines) == 0 {
		SetNotice(c, "Your cart is empty.")
		return c.Redirect(http.StatusSeeOther, "/show_cart")
	}

	names := make([]string, len(lines))
	subtotal := 0.0
	for i, line := range lines {
		names[i] = line.Name
		subtotal += line.Price
	}
	label := strings.Join(names, ", ")
	amountCents := int64(math.Round(subtotal * 100))

	url, err := h.Provider.CreateSession(c.Request().Context(), label, amountCents)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.Redirect(http.StatusSeeOther, url)
}

// Success is the provider's return URL after payment: it clears the
// calling user's cart. Clearing an already-empty cart is a no-op, so a
// duplicate callback is harmless.
func (h *CheckoutHandler) Success(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartLine{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "checkout_completed",
		"userID": userID,
	}, fmt.Sprint(userID))

	return c.JSON(http.StatusOK, echo.Map{"message": "payment successful"})
}

func (h *CheckoutHandler) Cancel(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "payment canceled"})
}

func (h *CheckoutHandler) publish(c echo.Context, event map[string]interface{}, key string) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
