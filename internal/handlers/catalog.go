package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/images"
	"github.com/avdeev/storefront/internal/logging"
	"github.com/avdeev/storefront/internal/models"
	"github.com/avdeev/storefront/internal/mykafka"
	"github.com/avdeev/storefront/internal/service/search"
)

type CatalogHandler struct {
	DB       *gorm.DB
	Ingestor *images.Ingestor
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *CatalogHandler) AddItemForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"notice": TakeNotice(c)})
}

func (h *CatalogHandler) AddItem(c echo.Context) error {
	name := c.FormValue("name")
	description := c.FormValue("description")
	priceRaw := c.FormValue("price")
	if name == "" || priceRaw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and price are required")
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	var existing models.Item
	err = h.DB.Where("name = ?", name).First(&existing).Error
	if err == nil {
		SetNotice(c, "An item with this name already exists.")
		return c.Redirect(http.StatusSeeOther, "/add_item")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	imageOne, err := h.ingest(c, "image_1", h.Ingestor.IngestPrimary)
	if err != nil {
		return err
	}
	imageTwo, err := h.ingest(c, "image_2", h.Ingestor.IngestSecondary)
	if err != nil {
		return err
	}

	item := models.Item{
		Name:        name,
		ImageOne:    imageOne,
		ImageTwo:    imageTwo,
		Price:       price,
		Description: description,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	h.index(c, &item)
	h.publish(c, map[string]interface{}{
		"type":   "item_created",
		"itemID": item.ID,
		"name":   item.Name,
	})

	return c.Redirect(http.StatusSeeOther, "/store")
}

func (h *CatalogHandler) Store(c echo.Context) error {
	var items []models.Item
	if err := h.DB.Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"notice": TakeNotice(c),
	})
}

func (h *CatalogHandler) ShowItem(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, item)
}

// Delete removes either a catalog item or one of the caller's cart lines,
// depending on the source segment. Deleting an item never cascades into
// cart lines: snapshots stay valid for carts that already hold the item.
func (h *CatalogHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	switch c.Param("source") {
	case "store":
		if currentRole(c) != "admin" {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		if err := h.DB.Delete(&models.Item{}, id).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
		h.deindex(c, uint(id))
		h.publish(c, map[string]interface{}{
			"type":   "item_deleted",
			"itemID": id,
		})
		return c.Redirect(http.StatusSeeOther, "/store")

	case "cart":
		userID, err := currentUserID(c)
		if err != nil {
			return err
		}
		if err := h.DB.
			Where("id = ? AND user_id = ?", id, userID).
			Delete(&models.CartLine{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err)
		}
		return c.Redirect(http.StatusSeeOther, "/show_cart")

	default:
		return echo.NewHTTPError(http.StatusNotFound, "unknown delete source")
	}
}

func (h *CatalogHandler) ingest(c echo.Context, field string, fn func(string, io.Reader) (string, error)) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, field+" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	defer f.Close()

	name, err := fn(fh.Filename, f)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return name, nil
}

func (h *CatalogHandler) index(c echo.Context, item *models.Item) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexItem(ctx, h.ES, h.Index, item); err != nil {
		logging.FromContext(c.Request().Context()).Error("index item error", "error", err)
	}
}

func (h *CatalogHandler) deindex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeleteItem(ctx, h.ES, h.Index, id); err != nil {
		logging.FromContext(c.Request().Context()).Error("deindex item error", "error", err)
	}
}

func (h *CatalogHandler) publish(c echo.Context, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "item_events", fmt.Sprint(event["itemID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
