package main

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sportstore/internal/catalog"
	"sportstore/internal/model"
	"sportstore/internal/seed"
	"sportstore/internal/storage"
)

// pageData is passed to layout.html and every storefront page.
type pageData struct {
	Title      string
	StoreName  string
	Criteria   catalog.Criteria
	Fallback   bool
	Slides     []model.Slide
	Products   []model.ProductView
	Brands     []model.Brand
	Categories []model.Category
	Product    model.ProductView
	Message    string
}

func (app *application) newPageData(title string) pageData {
	return pageData{Title: title, StoreName: app.cfg.StoreName}
}

func criteriaFrom(r *http.Request) catalog.Criteria {
	q := r.URL.Query()
	return catalog.Criteria{
		Category: strings.TrimSpace(q.Get("category")),
		Brand:    strings.TrimSpace(q.Get("brand")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
}

// listing loads, filters and shuffles the visible products.
func (app *application) listing(r *http.Request, c catalog.Criteria) (catalog.Listing, []model.ProductView) {
	l := app.catalog.LoadListing(r.Context())
	products := catalog.Filter(catalog.ActiveOnly(l.Products), c)
	var rng *rand.Rand
	if app.newRand != nil {
		rng = app.newRand()
	}
	catalog.Shuffle(products, rng)
	return l, products
}

// homeHandler renders the carousel and the product grid.
func (app *application) homeHandler(w http.ResponseWriter, r *http.Request) {
	c := criteriaFrom(r)
	l, products := app.listing(r, c)

	data := app.newPageData("Inicio")
	data.Criteria = c
	data.Fallback = l.Fallback
	data.Products = products
	data.Brands = l.Brands
	data.Categories = l.Categories

	active, err := app.slides.ListActive(r.Context())
	if err != nil {
		app.logger.Error("Failed to load carousel, using default slides", "error", err)
		active = seed.Defaults().Slides
	}
	data.Slides = active

	if err := app.templates.Render(w, http.StatusOK, "home.html", data); err != nil {
		app.logger.Error("Error rendering home page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// productHandler renders one product with its colors and sizes.
func (app *application) productHandler(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	view, err := app.catalog.GetProductView(r.Context(), productID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !view.Active) {
		app.renderMessage(w, r, http.StatusNotFound, "Producto no encontrado", "El producto que buscás ya no está disponible.")
		return
	}
	if err != nil {
		app.logger.Error("Failed to load product", "productID", productID, "error", err)
		app.renderMessage(w, r, http.StatusServiceUnavailable, "Servicio no disponible", "Intentá de nuevo en unos minutos.")
		return
	}

	data := app.newPageData(view.Name)
	data.Product = view
	if err := app.templates.Render(w, http.StatusOK, "product.html", data); err != nil {
		app.logger.Error("Error rendering product page", "productID", productID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// checkoutHandler turns the posted cart into a WhatsApp link and redirects
// to it. Prices always come from the catalog, never from the form.
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ids := r.PostForm["product_id"]
	sizes := r.PostForm["size"]
	colors := r.PostForm["color"]
	qtys := r.PostForm["qty"]

	lines := make([]catalog.CartLine, 0, len(ids))
	for i, id := range ids {
		view, err := app.catalog.GetProductView(r.Context(), id)
		if err != nil || !view.Active {
			app.logger.Warn("Checkout line skipped", "productID", id, "error", err)
			continue
		}
		qty := 1
		if i < len(qtys) {
			qty, err = catalog.ParseQuantity(qtys[i])
			if err != nil {
				app.logger.Warn("Checkout rejected", "productID", id, "error", err)
				app.renderMessage(w, r, http.StatusBadRequest, "No pudimos armar el pedido", "Revisá las cantidades e intentá de nuevo.")
				return
			}
		}
		line := catalog.CartLine{Name: view.Name, Quantity: qty, UnitPrice: view.Price}
		if i < len(sizes) {
			line.Size = strings.TrimSpace(sizes[i])
		}
		if i < len(colors) {
			line.Color = strings.TrimSpace(colors[i])
		}
		lines = append(lines, line)
	}

	link, err := catalog.CheckoutLink(app.cfg.WhatsAppPhone, lines)
	switch {
	case errors.Is(err, catalog.ErrEmptyCart):
		app.renderMessage(w, r, http.StatusBadRequest, "Carrito vacío", "Agregá productos antes de hacer el pedido.")
		return
	case errors.Is(err, catalog.ErrInvalidInput):
		app.logger.Warn("Checkout rejected", "error", err)
		app.renderMessage(w, r, http.StatusBadRequest, "No pudimos armar el pedido", "Revisá las cantidades e intentá de nuevo.")
		return
	case err != nil:
		app.logger.Error("Checkout failed", "error", err)
		app.renderMessage(w, r, http.StatusInternalServerError, "Error", "No pudimos armar el pedido.")
		return
	}
	app.logger.Info("Checkout handed off", "lines", len(lines))
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// apiProductsHandler returns the filtered listing as JSON, shuffled like the
// home grid.
func (app *application) apiProductsHandler(w http.ResponseWriter, r *http.Request) {
	c := criteriaFrom(r)
	l, products := app.listing(r, c)
	resp := struct {
		Criteria catalog.Criteria    `json:"criteria"`
		Fallback bool                `json:"fallback"`
		Products []model.ProductView `json:"products"`
	}{c, l.Fallback, products}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		app.logger.Error("Error encoding products response", "error", err)
	}
}

func (app *application) renderMessage(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	data := app.newPageData(title)
	data.Message = message
	if err := app.templates.Render(w, status, "message.html", data); err != nil {
		app.logger.Error("Error rendering message page", "error", err)
		http.Error(w, message, status)
	}
}
