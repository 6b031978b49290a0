package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"sportstore/internal/catalog"
	"sportstore/internal/config"
	"sportstore/internal/model"
	"sportstore/internal/seed"
	"sportstore/internal/slides"
	"sportstore/internal/storage/memory"
)

// newTestApplication builds a storefront over a seeded memory store.
func newTestApplication(t *testing.T) (*application, *memory.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	if _, err := seed.Load(context.Background(), store, seed.Defaults(), false, logger); err != nil {
		t.Fatalf("seed.Load() failed: %v", err)
	}
	cfg := config.Config{StoreName: "Test Shop", WhatsAppPhone: "+54 9 11 5555-0000"}
	app, err := newApplication(cfg, logger, catalog.NewService(store, logger), slides.NewManager(store, logger))
	if err != nil {
		t.Fatalf("newApplication() failed: %v", err)
	}
	app.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(1, 1)) }
	return app, store
}

func serve(app *application, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

func TestHomeRendersSlidesAndProducts(t *testing.T) {
	app, _ := newTestApplication(t)
	rr := serve(app, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	ds := seed.Defaults()
	for _, want := range []string{ds.Slides[0].Title, ds.Products[0].Name, "Test Shop"} {
		if !strings.Contains(body, want) {
			t.Errorf("GET / body missing %q", want)
		}
	}
	if strings.Contains(body, "catálogo de ejemplo") {
		t.Error("fallback notice shown for a healthy store")
	}
}

func TestHomeFallsBackWhenStoreFails(t *testing.T) {
	app, store := newTestApplication(t)
	store.FailOn("list", model.CollectionProducts, errors.New("connection refused"))
	store.FailOn("list", model.CollectionSlides, errors.New("connection refused"))

	rr := serve(app, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "catálogo de ejemplo") {
		t.Error("expected the fallback notice")
	}
	if !strings.Contains(body, seed.Defaults().Slides[0].Title) {
		t.Error("expected default slides")
	}
}

func TestAPIProductsFilters(t *testing.T) {
	app, _ := newTestApplication(t)
	rr := serve(app, httptest.NewRequest("GET", "/api/products?category=zapatillas&brand=NIKE", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Products []model.ProductView `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Products) == 0 {
		t.Fatal("expected at least one product")
	}
	for _, p := range resp.Products {
		if p.CategorySlug != "zapatillas" || !strings.EqualFold(p.BrandName, "nike") {
			t.Errorf("product %s does not match the filters: %s/%s", p.ID, p.CategorySlug, p.BrandName)
		}
	}
}

func TestAPIProductsAreShuffled(t *testing.T) {
	app, _ := newTestApplication(t)
	rr := serve(app, httptest.NewRequest("GET", "/api/products", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Products []model.ProductView `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	want := catalog.ActiveOnly(app.catalog.LoadListing(context.Background()).Products)
	catalog.Shuffle(want, rand.New(rand.NewPCG(1, 1)))
	if len(resp.Products) != len(want) {
		t.Fatalf("got %d products, want %d", len(resp.Products), len(want))
	}
	for i := range want {
		if resp.Products[i].ID != want[i].ID {
			t.Fatalf("product %d = %s, want %s in seeded shuffle order", i, resp.Products[i].ID, want[i].ID)
		}
	}
}

func TestProductPage(t *testing.T) {
	app, _ := newTestApplication(t)
	p := seed.Defaults().Products[0]

	rr := serve(app, httptest.NewRequest("GET", "/products/"+p.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), p.Name) {
		t.Errorf("product page missing %q", p.Name)
	}

	rr = serve(app, httptest.NewRequest("GET", "/products/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing product status = %d, want 404", rr.Code)
	}
}

func TestCheckoutRedirectsToWhatsApp(t *testing.T) {
	app, _ := newTestApplication(t)
	p := seed.Defaults().Products[0]

	form := url.Values{
		"product_id": {p.ID},
		"size":       {p.Sizes[0]},
		"color":      {""},
		"qty":        {"2"},
		// A forged price field is ignored.
		"price": {"0.01"},
	}
	req := httptest.NewRequest("POST", "/checkout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(app, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location: %v", err)
	}
	if loc.Host != "wa.me" || loc.Path != "/5491155550000" {
		t.Errorf("Location = %s", loc)
	}
	text := loc.Query().Get("text")
	want := "2 x " + p.Name + " (" + p.Sizes[0] + ") - $" + p.Price.Mul(decimal.NewFromInt(2)).StringFixed(2)
	if !strings.Contains(text, want) {
		t.Errorf("message %q does not contain %q", text, want)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	app, _ := newTestApplication(t)
	req := httptest.NewRequest("POST", "/checkout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(app, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCheckoutRejectsBadQuantity(t *testing.T) {
	app, _ := newTestApplication(t)
	p := seed.Defaults().Products[0]

	for _, qty := range []string{"two", "", "1.5", "0"} {
		form := url.Values{"product_id": {p.ID}, "qty": {qty}}
		req := httptest.NewRequest("POST", "/checkout", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := serve(app, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("qty %q: status = %d, want 400", qty, rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "" {
			t.Errorf("qty %q: redirected to %s", qty, loc)
		}
	}
}

func TestStaticAndHealth(t *testing.T) {
	app, _ := newTestApplication(t)

	rr := serve(app, httptest.NewRequest("GET", "/static/css/site.css", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("static status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("static content type = %q", ct)
	}

	rr = serve(app, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}

	rr = serve(app, httptest.NewRequest("GET", "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rr.Code)
	}
}
