package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sportstore/internal/catalog"
	"sportstore/internal/model"
)

// --- Products ---

func (app *adminApplication) productListHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(w, r, "products")
	ctx := r.Context()

	var (
		products   []model.Product
		brands     []model.Brand
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { products, err = app.catalog.ListProducts(gctx); return })
	g.Go(func() (err error) { brands, err = app.catalog.ListBrands(gctx); return })
	g.Go(func() (err error) { categories, err = app.catalog.ListCategories(gctx); return })
	if err := g.Wait(); err != nil {
		app.logger.Error("Failed to load products", "error", err)
		data["Flash"] = &flash{Type: "error", Message: "No se pudieron cargar los productos."}
	} else {
		data["Products"] = catalog.Join(products, brands, categories, nil)
	}
	app.render(w, http.StatusOK, "products.html", data)
}

// productInputFrom reads the product form. The returned product echoes the
// submitted values back into the form when validation fails.
func productInputFrom(r *http.Request) (catalog.ProductInput, model.Product, error) {
	in := catalog.ProductInput{
		Name:        strings.TrimSpace(r.PostForm.Get("name")),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
		ImageURL:    strings.TrimSpace(r.PostForm.Get("image_url")),
		CategoryID:  r.PostForm.Get("category_id"),
		BrandID:     r.PostForm.Get("brand_id"),
		Sizes:       catalog.ParseSizes(r.PostForm.Get("sizes")),
		Featured:    formBool(r, "featured"),
		Active:      formBool(r, "active"),
	}
	echo := model.Product{
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CategoryID:  in.CategoryID,
		BrandID:     in.BrandID,
		Sizes:       in.Sizes,
		Featured:    in.Featured,
		Active:      in.Active,
	}
	price, err := catalog.ParsePrice(r.PostForm.Get("price"))
	if err != nil {
		return in, echo, err
	}
	in.Price = price
	echo.Price = price
	return in, echo, nil
}

func (app *adminApplication) renderProductForm(w http.ResponseWriter, r *http.Request, status int, p model.Product, colors []model.ProductColor, problem string) {
	data := app.newTemplateData(w, r, "products")
	ctx := r.Context()
	brands, err := app.catalog.ListBrands(ctx)
	if err != nil {
		app.logger.Warn("Failed to load brands for product form", "error", err)
	}
	categories, err := app.catalog.ListCategories(ctx)
	if err != nil {
		app.logger.Warn("Failed to load categories for product form", "error", err)
	}
	data["Product"] = p
	data["Brands"] = brands
	data["Categories"] = categories
	data["Colors"] = colors
	data["ImageField"] = map[string]any{"Value": p.ImageURL, "MediaEnabled": app.uploader != nil}
	if problem != "" {
		data["Flash"] = &flash{Type: "error", Message: problem}
	}
	app.render(w, status, "product_form.html", data)
}

func (app *adminApplication) productCreateFormHandler(w http.ResponseWriter, r *http.Request) {
	app.renderProductForm(w, r, http.StatusOK, model.Product{Price: decimal.Zero, Active: true}, nil, "")
}

func (app *adminApplication) productCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in, echo, err := productInputFrom(r)
	if err == nil {
		var p model.Product
		p, err = app.catalog.CreateProduct(r.Context(), in)
		if err == nil {
			app.setFlash(w, "success", fmt.Sprintf("Producto %q creado.", p.Name))
			http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
			return
		}
	}
	if isValidation(err) {
		app.renderProductForm(w, r, http.StatusUnprocessableEntity, echo, nil, userMessage(err))
		return
	}
	app.failMutation(w, r, err, "crear el producto", "/admin/products")
}

func (app *adminApplication) productEditFormHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	p, err := app.catalog.GetProduct(r.Context(), id)
	if err != nil {
		app.loadFailed(w, r, err, "el producto")
		return
	}
	colors, err := app.catalog.ListColors(r.Context(), id)
	if err != nil {
		app.logger.Warn("Failed to load product colors", "productID", id, "error", err)
	}
	app.renderProductForm(w, r, http.StatusOK, p, colors, "")
}

func (app *adminApplication) productEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in, echo, err := productInputFrom(r)
	if err == nil {
		err = app.catalog.UpdateProduct(r.Context(), id, in)
		if err == nil {
			app.setFlash(w, "success", fmt.Sprintf("Producto %q guardado.", in.Name))
			http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
			return
		}
	}
	if isValidation(err) {
		echo.ID = id
		colors, _ := app.catalog.ListColors(r.Context(), id)
		app.renderProductForm(w, r, http.StatusUnprocessableEntity, echo, colors, userMessage(err))
		return
	}
	app.failMutation(w, r, err, "guardar el producto", "/admin/products")
}

func (app *adminApplication) productDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := app.catalog.DeleteProduct(r.Context(), id); err != nil {
		app.failMutation(w, r, err, "borrar el producto", "/admin/products")
		return
	}
	app.setFlash(w, "success", "Producto borrado.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (app *adminApplication) colorAddHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	editURL := "/admin/products/edit/" + id
	_, err := app.catalog.AddColor(r.Context(), id, catalog.ColorInput{
		Name:     r.PostForm.Get("name"),
		Hex:      r.PostForm.Get("hex"),
		ImageURL: r.PostForm.Get("image_url"),
	})
	switch {
	case err == nil:
		app.setFlash(w, "success", "Color agregado.")
	case isValidation(err):
		app.setFlash(w, "error", userMessage(err))
	default:
		app.failMutation(w, r, err, "agregar el color", editURL)
		return
	}
	http.Redirect(w, r, editURL, http.StatusSeeOther)
}

func (app *adminApplication) colorDeleteHandler(w http.ResponseWriter, r *http.Request) {
	editURL := "/admin/products/edit/" + chi.URLParam(r, "productID")
	if err := app.catalog.DeleteColor(r.Context(), chi.URLParam(r, "colorID")); err != nil {
		app.failMutation(w, r, err, "quitar el color", editURL)
		return
	}
	app.setFlash(w, "success", "Color quitado.")
	http.Redirect(w, r, editURL, http.StatusSeeOther)
}

// --- Brands ---

func (app *adminApplication) brandListHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(w, r, "brands")
	brands, err := app.catalog.ListBrands(r.Context())
	if err != nil {
		app.logger.Error("Failed to load brands", "error", err)
		data["Flash"] = &flash{Type: "error", Message: "No se pudieron cargar las marcas."}
	}
	data["Brands"] = brands
	app.render(w, http.StatusOK, "brands.html", data)
}

func (app *adminApplication) renderBrandForm(w http.ResponseWriter, r *http.Request, status int, b model.Brand, problem string) {
	data := app.newTemplateData(w, r, "brands")
	data["Brand"] = b
	if problem != "" {
		data["Flash"] = &flash{Type: "error", Message: problem}
	}
	app.render(w, status, "brand_form.html", data)
}

func (app *adminApplication) brandCreateFormHandler(w http.ResponseWriter, r *http.Request) {
	app.renderBrandForm(w, r, http.StatusOK, model.Brand{}, "")
}

func (app *adminApplication) brandCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name, logo := r.PostForm.Get("name"), r.PostForm.Get("logo_url")
	b, err := app.catalog.CreateBrand(r.Context(), name, logo)
	switch {
	case err == nil:
		app.setFlash(w, "success", fmt.Sprintf("Marca %q creada.", b.Name))
		http.Redirect(w, r, "/admin/brands", http.StatusSeeOther)
	case isValidation(err):
		app.renderBrandForm(w, r, http.StatusUnprocessableEntity, model.Brand{Name: name, LogoURL: logo}, userMessage(err))
	default:
		app.failMutation(w, r, err, "crear la marca", "/admin/brands")
	}
}

func (app *adminApplication) brandEditFormHandler(w http.ResponseWriter, r *http.Request) {
	b, err := app.catalog.GetBrand(r.Context(), chi.URLParam(r, "brandID"))
	if err != nil {
		app.loadFailed(w, r, err, "la marca")
		return
	}
	app.renderBrandForm(w, r, http.StatusOK, b, "")
}

func (app *adminApplication) brandEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "brandID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name, logo := r.PostForm.Get("name"), r.PostForm.Get("logo_url")
	err := app.catalog.UpdateBrand(r.Context(), id, name, logo)
	switch {
	case err == nil:
		app.setFlash(w, "success", "Marca guardada.")
		http.Redirect(w, r, "/admin/brands", http.StatusSeeOther)
	case isValidation(err):
		app.renderBrandForm(w, r, http.StatusUnprocessableEntity, model.Brand{ID: id, Name: name, LogoURL: logo}, userMessage(err))
	default:
		app.failMutation(w, r, err, "guardar la marca", "/admin/brands")
	}
}

func (app *adminApplication) brandDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.catalog.DeleteBrand(r.Context(), chi.URLParam(r, "brandID")); err != nil {
		app.failMutation(w, r, err, "borrar la marca", "/admin/brands")
		return
	}
	app.setFlash(w, "success", "Marca borrada.")
	http.Redirect(w, r, "/admin/brands", http.StatusSeeOther)
}

// --- Categories ---

func (app *adminApplication) categoryListHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(w, r, "categories")
	categories, err := app.catalog.ListCategories(r.Context())
	if err != nil {
		app.logger.Error("Failed to load categories", "error", err)
		data["Flash"] = &flash{Type: "error", Message: "No se pudieron cargar las categorías."}
	}
	data["Categories"] = categories
	app.render(w, http.StatusOK, "categories.html", data)
}

func (app *adminApplication) renderCategoryForm(w http.ResponseWriter, r *http.Request, status int, c model.Category, problem string) {
	data := app.newTemplateData(w, r, "categories")
	data["Category"] = c
	if problem != "" {
		data["Flash"] = &flash{Type: "error", Message: problem}
	}
	app.render(w, status, "category_form.html", data)
}

func (app *adminApplication) categoryCreateFormHandler(w http.ResponseWriter, r *http.Request) {
	app.renderCategoryForm(w, r, http.StatusOK, model.Category{}, "")
}

func (app *adminApplication) categoryCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name, slug := r.PostForm.Get("name"), r.PostForm.Get("slug")
	c, err := app.catalog.CreateCategory(r.Context(), name, slug)
	switch {
	case err == nil:
		app.setFlash(w, "success", fmt.Sprintf("Categoría %q creada.", c.Name))
		http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
	case isValidation(err):
		app.renderCategoryForm(w, r, http.StatusUnprocessableEntity, model.Category{Name: name, Slug: slug}, userMessage(err))
	default:
		app.failMutation(w, r, err, "crear la categoría", "/admin/categories")
	}
}

func (app *adminApplication) categoryEditFormHandler(w http.ResponseWriter, r *http.Request) {
	c, err := app.catalog.GetCategory(r.Context(), chi.URLParam(r, "categoryID"))
	if err != nil {
		app.loadFailed(w, r, err, "la categoría")
		return
	}
	app.renderCategoryForm(w, r, http.StatusOK, c, "")
}

func (app *adminApplication) categoryEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "categoryID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name, slug := r.PostForm.Get("name"), r.PostForm.Get("slug")
	err := app.catalog.UpdateCategory(r.Context(), id, name, slug)
	switch {
	case err == nil:
		app.setFlash(w, "success", "Categoría guardada.")
		http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
	case isValidation(err):
		app.renderCategoryForm(w, r, http.StatusUnprocessableEntity, model.Category{ID: id, Name: name, Slug: slug}, userMessage(err))
	default:
		app.failMutation(w, r, err, "guardar la categoría", "/admin/categories")
	}
}

func (app *adminApplication) categoryDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		app.failMutation(w, r, err, "borrar la categoría", "/admin/categories")
		return
	}
	app.setFlash(w, "success", "Categoría borrada.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}
