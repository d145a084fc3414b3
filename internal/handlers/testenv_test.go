package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/db"
	"github.com/avdeev/storefront/internal/handlers"
	"github.com/avdeev/storefront/internal/hash"
	"github.com/avdeev/storefront/internal/images"
	"github.com/avdeev/storefront/internal/models"
)

var dbSeq atomic.Int64

type fakeProvider struct {
	URL         string
	Label       string
	AmountCents int64
	Calls       int
}

func (p *fakeProvider) CreateSession(_ context.Context, label string, amountCents int64) (string, error) {
	p.Calls++
	p.Label = label
	p.AmountCents = amountCents
	return p.URL, nil
}

type testEnv struct {
	T                        *testing.T
	E                        *echo.Echo
	DB                       *gorm.DB
	A                        *handlers.AuthHandler
	Cat                      *handlers.CatalogHandler
	C                        *handlers.CartHandler
	Ck                       *handlers.CheckoutHandler
	Provider                 *fakeProvider
	StaticDir                string
	JWTSecret, RefreshSecret []byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	staticDir := t.TempDir()
	ingestor := &images.Ingestor{StaticDir: staticDir}
	require.NoError(t, ingestor.EnsureDirs())

	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")
	provider := &fakeProvider{URL: "https://pay.example/session/123"}

	env := &testEnv{
		T:             t,
		E:             echo.New(),
		DB:            gdb,
		Provider:      provider,
		StaticDir:     staticDir,
		JWTSecret:     jwtSecret,
		RefreshSecret: refreshSecret,
	}
	env.A = &handlers.AuthHandler{DB: gdb, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	env.Cat = &handlers.CatalogHandler{DB: gdb, Ingestor: ingestor, Index: "items"}
	env.C = &handlers.CartHandler{DB: gdb}
	env.Ck = &handlers.CheckoutHandler{DB: gdb, Provider: provider}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics the session middleware by placing the resolved identity
// on the request context.
func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func (env *testEnv) createUser(email, password, name, role string) *models.User {
	env.T.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := &models.User{Email: email, PasswordHash: pwHash, Name: name, Role: role}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) createItem(name string, price float64) *models.Item {
	env.T.Helper()
	item := &models.Item{
		Name:        name,
		ImageOne:    name + ".png",
		ImageTwo:    name + "_2.png",
		Price:       price,
		Description: "a " + name,
	}
	require.NoError(env.T, env.DB.Create(item).Error)
	return item
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartItem builds an add_item form with two uploaded images.
func multipartItem(t *testing.T, name, price, description string, img1, img2 []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("price", price))
	require.NoError(t, mw.WriteField("description", description))

	f1, err := mw.CreateFormFile("image_1", name+".png")
	require.NoError(t, err)
	_, err = f1.Write(img1)
	require.NoError(t, err)

	f2, err := mw.CreateFormFile("image_2", name+"_2.png")
	require.NoError(t, err)
	_, err = f2.Write(img2)
	require.NoError(t, err)

	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
