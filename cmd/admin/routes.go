package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/nosurf"
)

// routes sets up the HTTP router for the admin application.
func (app *adminApplication) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(app.static))))

	r.Get("/login", app.loginFormHandler)
	r.Post("/login", app.loginHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.requireSession)

		r.Post("/logout", app.logoutHandler)
		r.Get("/", app.dashboardHandler)

		r.Route("/admin/products", func(r chi.Router) {
			r.Get("/", app.productListHandler)
			r.Get("/new", app.productCreateFormHandler)
			r.Post("/new", app.productCreateHandler)
			r.Get("/edit/{productID}", app.productEditFormHandler)
			r.Post("/edit/{productID}", app.productEditHandler)
			r.Post("/delete/{productID}", app.productDeleteHandler)
			r.Post("/{productID}/colors", app.colorAddHandler)
			r.Post("/{productID}/colors/{colorID}/delete", app.colorDeleteHandler)
		})

		r.Route("/admin/brands", func(r chi.Router) {
			r.Get("/", app.brandListHandler)
			r.Get("/new", app.brandCreateFormHandler)
			r.Post("/new", app.brandCreateHandler)
			r.Get("/edit/{brandID}", app.brandEditFormHandler)
			r.Post("/edit/{brandID}", app.brandEditHandler)
			r.Post("/delete/{brandID}", app.brandDeleteHandler)
		})

		r.Route("/admin/categories", func(r chi.Router) {
			r.Get("/", app.categoryListHandler)
			r.Get("/new", app.categoryCreateFormHandler)
			r.Post("/new", app.categoryCreateHandler)
			r.Get("/edit/{categoryID}", app.categoryEditFormHandler)
			r.Post("/edit/{categoryID}", app.categoryEditHandler)
			r.Post("/delete/{categoryID}", app.categoryDeleteHandler)
		})

		r.Route("/admin/slides", func(r chi.Router) {
			r.Get("/", app.slideListHandler)
			r.Get("/new", app.slideCreateFormHandler)
			r.Post("/new", app.slideCreateHandler)
			r.Get("/edit/{slideID}", app.slideEditFormHandler)
			r.Post("/edit/{slideID}", app.slideEditHandler)
			r.Post("/delete/{slideID}", app.slideDeleteHandler)
			r.Post("/{slideID}/move/{direction}", app.slideMoveHandler)
			r.Post("/{slideID}/toggle", app.slideToggleHandler)
		})

		r.Post("/api/admin/uploads", app.uploadHandler)
	})

	return app.csrf(r)
}

// csrf wraps the router with nosurf. Tokens travel in the csrf_token form
// field or the X-CSRF-Token header sent by htmx and the upload script.
func (app *adminApplication) csrf(next http.Handler) http.Handler {
	h := nosurf.New(next)
	h.SetBaseCookie(http.Cookie{
		Path:     "/",
		HttpOnly: true,
		Secure:   app.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.Warn("CSRF check failed", "path", r.URL.Path, "reason", nosurf.Reason(r))
		http.Error(w, "Solicitud rechazada (token CSRF inválido)", http.StatusForbidden)
	}))
	return h
}
