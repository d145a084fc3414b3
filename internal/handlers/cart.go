package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/logging"
	"github.com/avdeev/storefront/internal/models"
	"github.com/avdeev/storefront/internal/mykafka"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// AddToCart appends a new line snapshotting the item's current name,
// image and price. Adding the same item twice makes two lines; there is
// no quantity merge.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var item models.Item
	if err := h.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	line := models.CartLine{
		ItemID: item.ID,
		UserID: userID,
		Name:   item.Name,
		Image:  item.ImageOne,
		Price:  item.Price,
	}
	if err := h.DB.Create(&line).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]interface{}{
		"type":   "cart_line_added",
		"userID": userID,
		"itemID": item.ID,
	}, fmt.Sprint(userID))

	return c.Redirect(http.StatusSeeOther, "/show_cart")
}

func (h *CartHandler) ShowCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var lines []models.CartLine
	if err := h.DB.Where("user_id = ?", userID).Find(&lines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.Price
	}

	return c.JSON(http.StatusOK, echo.Map{
		"lines":    lines,
		"subtotal": subtotal,
		"notice":   TakeNotice(c),
	})
}

func (h *CartHandler) publish(c echo.Context, event map[string]interface{}, key string) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
