package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportstore/internal/config"
	"sportstore/internal/media"
	"sportstore/internal/model"
	"sportstore/internal/seed"
	"sportstore/internal/storage/memory"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "correct-horse"
)

type fakeUploader struct {
	names []string
}

func (f *fakeUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if !media.Allowed(contentType) {
		return "", media.ErrUnsupportedType
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/uploads/" + name, nil
}

func newTestAdmin(t *testing.T, uploader media.Uploader) (*adminApplication, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	_, err := seed.Load(context.Background(), store, seed.Defaults(), false, logger)
	require.NoError(t, err)

	cfg := config.Config{
		StoreName:        "Test Admin",
		SessionSecret:    "test-secret",
		SessionTTL:       time.Hour,
		DashboardTimeout: time.Second,
	}
	app, err := newAdminApplication(cfg, logger, store, uploader)
	require.NoError(t, err)
	_, err = app.auth.CreateUser(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	return app, store
}

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newBrowser(t *testing.T, app *adminApplication) *browser {
	t.Helper()
	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, srv: srv, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(b.t, err)
	return res, string(body)
}

func (b *browser) get(path string, headers ...string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.srv.URL+path, nil)
	require.NoError(b.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values, headers ...string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return b.do(req)
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// csrfToken loads page and returns the token embedded in it.
func (b *browser) csrfToken(page string) string {
	b.t.Helper()
	_, body := b.get(page)
	m := csrfMeta.FindStringSubmatch(body)
	require.NotNil(b.t, m, "no csrf token on %s", page)
	return html.UnescapeString(m[1])
}

func (b *browser) login() string {
	b.t.Helper()
	token := b.csrfToken("/login")
	res, _ := b.post("/login", url.Values{
		"csrf_token": {token},
		"email":      {testEmail},
		"password":   {testPassword},
	})
	require.Equal(b.t, http.StatusSeeOther, res.StatusCode)
	return b.csrfToken("/")
}

func TestAnonymousRequestsRedirectToLogin(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)

	res, _ := b.get("/admin/products")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	res, _ = b.get("/admin/slides", "HX-Request", "true")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("HX-Redirect"))
}

func TestLoginLogout(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)

	token := b.csrfToken("/login")
	res, body := b.post("/login", url.Values{
		"csrf_token": {token},
		"email":      {testEmail},
		"password":   {"wrong-password"},
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Email o contraseña incorrectos.")
	assert.Contains(t, body, `value="admin@example.com"`)

	token = b.login()

	res, body = b.get("/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, testEmail)
	assert.Contains(t, body, `<span class="count">6</span>`)

	res, _ = b.get("/login")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode, "signed in admins skip the login form")

	res, _ = b.post("/logout", url.Values{"csrf_token": {token}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	res, _ = b.get("/")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestPostsWithoutCSRFTokenAreRejected(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	b.login()

	res, _ := b.post("/admin/brands/new", url.Values{"name": {"Reebok"}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	brands, err := app.catalog.ListBrands(context.Background())
	require.NoError(t, err)
	assert.Len(t, brands, 3)
}

func TestDashboardShowsZeroForFailedCount(t *testing.T) {
	app, store := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	b.login()
	store.FailOn("count", model.CollectionProducts, errors.New("disk on fire"))

	res, body := b.get("/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `<div class="tile tile-failed">`)
	assert.Contains(t, body, `<span class="count">0</span>`)
	assert.Contains(t, body, `<span class="count">3</span>`, "other tiles still render")
}

func TestSlideMoveOverHTMX(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	token := b.login()
	ctx := context.Background()

	before, err := app.slides.List(ctx)
	require.NoError(t, err)
	require.Len(t, before, 3)

	res, body := b.post("/admin/slides/"+before[0].ID+"/move/later", nil,
		"HX-Request", "true", "X-CSRF-Token", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `id="slide-list"`)
	assert.NotContains(t, body, "<html", "only the fragment is returned")

	var trigger struct {
		ShowMessage struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"showMessage"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Header.Get("HX-Trigger")), &trigger))
	assert.Equal(t, "success", trigger.ShowMessage.Type)

	after, err := app.slides.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{before[1].ID, before[0].ID, before[2].ID},
		[]string{after[0].ID, after[1].ID, after[2].ID})

	// Moving the first slide earlier changes nothing.
	res, _ = b.post("/admin/slides/"+after[0].ID+"/move/earlier", nil,
		"HX-Request", "true", "X-CSRF-Token", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	again, err := app.slides.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, after[0].ID, again[0].ID)

	res, _ = b.post("/admin/slides/"+after[0].ID+"/move/sideways", nil,
		"HX-Request", "true", "X-CSRF-Token", token)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSlideToggleAndDeleteFailure(t *testing.T) {
	app, store := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	token := b.login()
	ctx := context.Background()

	list, err := app.slides.List(ctx)
	require.NoError(t, err)
	target := list[1]

	res, _ := b.post("/admin/slides/"+target.ID+"/toggle", nil, "HX-Request", "true", "X-CSRF-Token", token)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got, err := app.slides.Get(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, !target.Active, got.Active)

	store.FailOn("delete", model.CollectionSlides, errors.New("read-only"))
	res, _ = b.post("/admin/slides/delete/"+target.ID, nil, "HX-Request", "true", "X-CSRF-Token", token)
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "none", res.Header.Get("HX-Reswap"))
	assert.Contains(t, res.Header.Get("HX-Trigger"), `"type": "error"`)

	res, _ = b.post("/admin/slides/missing/toggle", nil, "HX-Request", "true", "X-CSRF-Token", token)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSlideCreateAppends(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	token := b.login()

	res, body := b.post("/admin/slides/new", url.Values{"csrf_token": {token}, "title": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "El título es obligatorio")

	res, _ = b.post("/admin/slides/new", url.Values{
		"csrf_token": {token},
		"title":      {"Liquidación"},
		"image_url":  {"/img/sale.jpg"},
		"active":     {"true"},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	_, body = b.get("/admin/slides")
	assert.Contains(t, body, "Banner &#34;Liquidación&#34; creado.")

	list, err := app.slides.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Liquidación", list[3].Title)
	assert.Equal(t, 3, list[3].Order)
}

func TestProductForms(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	token := b.login()
	ctx := context.Background()

	res, body := b.post("/admin/products/new", url.Values{
		"csrf_token": {token},
		"name":       {""},
		"price":      {"10"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "El nombre del producto es obligatorio")

	res, body = b.post("/admin/products/new", url.Values{
		"csrf_token": {token},
		"name":       {"Trail Runner"},
		"price":      {"abc"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, `value="Trail Runner"`, "submitted values are kept")

	res, _ = b.post("/admin/products/new", url.Values{
		"csrf_token": {token},
		"name":       {"Trail Runner"},
		"price":      {"$99,90"},
		"brand_id":   {"brand-puma"},
		"sizes":      {"40, 41,,42"},
		"active":     {"true"},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	products, err := app.catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 7)
	var created model.Product
	for _, p := range products {
		if p.Name == "Trail Runner" {
			created = p
		}
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "99.90", created.Price.StringFixed(2))
	assert.Equal(t, []string{"40", "41", "42"}, created.Sizes)

	res, body = b.get("/admin/products")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Trail Runner")
	assert.Contains(t, body, "Puma")

	res, _ = b.get("/admin/products/edit/" + created.ID)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = b.get("/admin/products/edit/missing")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = b.post("/admin/products/"+created.ID+"/colors", url.Values{
		"csrf_token": {token},
		"name":       {"Negro"},
		"hex":        {"#000000"},
	})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/products/edit/"+created.ID, res.Header.Get("Location"))
	colors, err := app.catalog.ListColors(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, colors, 1)

	res, _ = b.post("/admin/products/delete/"+created.ID, url.Values{"csrf_token": {token}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	_, err = app.catalog.GetProduct(ctx, created.ID)
	assert.Error(t, err)
	colors, err = app.catalog.ListColors(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, colors)
}

func TestCategoryForms(t *testing.T) {
	app, _ := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	token := b.login()

	res, body := b.post("/admin/categories/new", url.Values{"csrf_token": {token}, "name": {"Todas"}, "slug": {"all"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, `value="Todas"`)

	res, _ = b.post("/admin/categories/new", url.Values{"csrf_token": {token}, "name": {"Mochilas Urbanas"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	res, body = b.get("/admin/categories")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "<code>mochilas-urbanas</code>")

	res, _ = b.post("/admin/categories/delete/missing", url.Values{"csrf_token": {token}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestBrandListLoadFailure(t *testing.T) {
	app, store := newTestAdmin(t, nil)
	b := newBrowser(t, app)
	b.login()
	store.FailOn("list", model.CollectionBrands, errors.New("timeout"))

	res, body := b.get("/admin/brands")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "No se pudieron cargar las marcas.")
}

func uploadRequest(t *testing.T, b *browser, token, name, declared string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part := textproto.MIMEHeader{}
	part.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	part.Set("Content-Type", declared)
	fw, err := mw.CreatePart(part)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.srv.URL+"/api/admin/uploads", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", token)
	return req
}

func TestUploads(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("disabled", func(t *testing.T) {
		app, _ := newTestAdmin(t, nil)
		b := newBrowser(t, app)
		token := b.login()
		res, body := b.do(uploadRequest(t, b, token, "hero.png", "application/octet-stream", png))
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Contains(t, body, "no está configurada")
	})

	t.Run("image", func(t *testing.T) {
		up := &fakeUploader{}
		app, _ := newTestAdmin(t, up)
		b := newBrowser(t, app)
		token := b.login()
		res, body := b.do(uploadRequest(t, b, token, "hero.png", "application/octet-stream", png))
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var got uploadResponse
		require.NoError(t, json.Unmarshal([]byte(body), &got))
		assert.Equal(t, "https://cdn.example.com/uploads/hero.png", got.URL)
		assert.Equal(t, []string{"hero.png"}, up.names)
	})

	t.Run("not an image", func(t *testing.T) {
		app, _ := newTestAdmin(t, &fakeUploader{})
		b := newBrowser(t, app)
		token := b.login()
		res, body := b.do(uploadRequest(t, b, token, "hero.png", "image/png", []byte("plain text, not a picture")))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, body, "Solo se pueden subir imágenes")
	})

	t.Run("svg declared as image", func(t *testing.T) {
		up := &fakeUploader{}
		app, _ := newTestAdmin(t, up)
		b := newBrowser(t, app)
		token := b.login()
		svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
		res, body := b.do(uploadRequest(t, b, token, "logo.svg", "image/svg+xml", svg))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		assert.Contains(t, body, "Solo se pueden subir imágenes")
		assert.Empty(t, up.names, "nothing may reach the bucket")
	})
}

func TestTriggerMessageEscapes(t *testing.T) {
	rr := httptest.NewRecorder()
	triggerMessage(rr, "error", `Banner "Liquidación" <b>falló</b> 👟`)

	header := rr.Header().Get("HX-Trigger")
	for i := 0; i < len(header); i++ {
		require.Less(t, header[i], byte(0x80), "header must be ASCII: %s", header)
	}
	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(header), &got))
	assert.Equal(t, `Banner "Liquidación" <b>falló</b> 👟`, got["showMessage"]["message"])
	assert.Equal(t, "error", got["showMessage"]["type"])
}

func TestUserMessage(t *testing.T) {
	err := errors.New("create product: invalid input: el nombre del producto es obligatorio")
	assert.Equal(t, "El nombre del producto es obligatorio", userMessage(err))
}
