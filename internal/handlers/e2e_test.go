package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avdeev/storefront/internal/handlers"
	"github.com/avdeev/storefront/internal/httpserver"
	authmw "github.com/avdeev/storefront/internal/middleware/auth"
	"github.com/avdeev/storefront/internal/models"
)

func newTestServer(t *testing.T, env *testEnv) (*httptest.Server, *http.Client) {
	t.Helper()

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     env.A,
		CatalogHandler:  env.Cat,
		CartHandler:     env.C,
		CheckoutHandler: env.Ck,
		SearchHandler:   &handlers.SearchHandler{},
		TokenService: &authmw.TokenService{
			DB:            env.DB,
			JWTSecret:     env.JWTSecret,
			RefreshSecret: env.RefreshSecret,
		},
		StaticDir: env.StaticDir,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func postForm(t *testing.T, client *http.Client, u string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.Post(u, echo.MIMEApplicationForm, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func get(t *testing.T, client *http.Client, u string) *http.Response {
	t.Helper()
	resp, err := client.Get(u)
	require.NoError(t, err)
	return resp
}

func TestEndToEndPurchase(t *testing.T) {
	env := newTestEnv(t)
	srv, client := newTestServer(t, env)

	// register Ann; as the first user she owns the store
	resp := postForm(t, client, srv.URL+"/register", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw"},
		"name":     {"Ann"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/store", resp.Header.Get("Location"))

	// log in again to prove credentials round-trip
	resp = postForm(t, client, srv.URL+"/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/store", resp.Header.Get("Location"))

	// upload an item through the admin flow
	body, contentType := multipartItem(t, "Widget", "9.99", "desc", pngBytes(t, 300, 400), pngBytes(t, 300, 400))
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/add_item", body)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, contentType)
	itemResp, err := client.Do(req)
	require.NoError(t, err)
	itemResp.Body.Close()
	require.Equal(t, http.StatusSeeOther, itemResp.StatusCode)

	// the store lists it
	storeResp := get(t, client, srv.URL+"/store")
	require.Equal(t, http.StatusOK, storeResp.StatusCode)
	var store struct {
		Items []models.Item `json:"items"`
	}
	require.NoError(t, json.NewDecoder(storeResp.Body).Decode(&store))
	storeResp.Body.Close()
	require.Len(t, store.Items, 1)
	widget := store.Items[0]
	require.Equal(t, "Widget", widget.Name)

	// add it to the cart
	resp = get(t, client, srv.URL+"/add_to_cart/"+strconv.FormatUint(uint64(widget.ID), 10))
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/show_cart", resp.Header.Get("Location"))

	// one line, subtotal 9.99
	cartResp := get(t, client, srv.URL+"/show_cart")
	require.Equal(t, http.StatusOK, cartResp.StatusCode)
	var cart struct {
		Lines    []models.CartLine `json:"lines"`
		Subtotal float64           `json:"subtotal"`
	}
	require.NoError(t, json.NewDecoder(cartResp.Body).Decode(&cart))
	cartResp.Body.Close()
	require.Len(t, cart.Lines, 1)
	require.InDelta(t, 9.99, cart.Subtotal, 1e-9)

	// checkout hands off to the payment provider
	resp = get(t, client, srv.URL+"/checkout")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, env.Provider.URL, resp.Header.Get("Location"))
	require.Equal(t, int64(999), env.Provider.AmountCents)
	require.Equal(t, "Widget", env.Provider.Label)

	// the provider's success callback clears the cart
	resp = get(t, client, srv.URL+"/success/")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cartResp = get(t, client, srv.URL+"/show_cart")
	require.NoError(t, json.NewDecoder(cartResp.Body).Decode(&cart))
	cartResp.Body.Close()
	require.Empty(t, cart.Lines)
}

func TestAnonymousCartRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createItem("Widget", 9.99)
	srv, client := newTestServer(t, env)

	resp := get(t, client, srv.URL+"/add_to_cart/1")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	// the login page surfaces the notice set by the redirect
	loginResp := get(t, client, srv.URL+"/login")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var login struct {
		Notice string `json:"notice"`
	}
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&login))
	loginResp.Body.Close()
	require.Contains(t, login.Notice, "login or register")
}

func TestAdminRoutesForbiddenForOthers(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("owner@x.com", "pw", "Owner", "admin")
	srv, client := newTestServer(t, env)

	// anonymous caller
	resp := get(t, client, srv.URL+"/add_item")
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// regular authenticated caller
	resp = postForm(t, client, srv.URL+"/register", url.Values{
		"email":    {"b@x.com"},
		"password": {"pw"},
		"name":     {"Bob"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, client, srv.URL+"/add_item")
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the owner gets through
	resp = postForm(t, client, srv.URL+"/login", url.Values{
		"email":    {"owner@x.com"},
		"password": {"pw"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, client, srv.URL+"/add_item")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
