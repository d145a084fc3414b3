package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avdeev/storefront/internal/handlers"
	authmw "github.com/avdeev/storefront/internal/middleware/auth"
)

type Deps struct {
	AuthHandler     *handlers.AuthHandler
	CatalogHandler  *handlers.CatalogHandler
	CartHandler     *handlers.CartHandler
	CheckoutHandler *handlers.CheckoutHandler
	SearchHandler   *handlers.SearchHandler
	TokenService    *authmw.TokenService
	StaticDir       string
}

var getPost = []string{http.MethodGet, http.MethodPost}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"name": "storefront", "notice": handlers.TakeNotice(c)})
	})
	e.GET("/about", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"about": "A small storefront with a hosted checkout."})
	})

	e.GET("/register", d.AuthHandler.RegisterForm)
	e.POST("/register", d.AuthHandler.Register)
	e.GET("/login", d.AuthHandler.LoginForm)
	e.POST("/login", d.AuthHandler.Login)
	e.GET("/logout", d.AuthHandler.Logout)

	e.Match(getPost, "/store", d.CatalogHandler.Store)
	e.Match(getPost, "/show_item/:id", d.CatalogHandler.ShowItem)
	e.GET("/search", d.SearchHandler.Handler)

	e.Match(getPost, "/add_item", addItem(d), d.TokenService.AdminOnly)

	e.Match(getPost, "/add_to_cart/:id", d.CartHandler.AddToCart, d.TokenService.RequireLogin)
	e.Match(getPost, "/show_cart", d.CartHandler.ShowCart, d.TokenService.RequireLogin)
	e.GET("/delete/:id/:source", d.CatalogHandler.Delete, d.TokenService.RequireLogin)

	e.Match(getPost, "/checkout", d.CheckoutHandler.Checkout, d.TokenService.RequireLogin)
	e.GET("/success/", d.CheckoutHandler.Success, d.TokenService.RequireLogin)
	e.GET("/cancel", d.CheckoutHandler.Cancel, d.TokenService.RequireLogin)

	e.Static("/static", d.StaticDir)
}

// addItem serves the upload form on GET and performs the upload on POST.
func addItem(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return d.CatalogHandler.AddItemForm(c)
		}
		return d.CatalogHandler.AddItem(c)
	}
}
