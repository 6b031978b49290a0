package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sportstore/internal/model"
	"sportstore/internal/slides"
	"sportstore/internal/storage"
)

func (app *adminApplication) slideListHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(w, r, "slides")
	list, err := app.slides.List(r.Context())
	if err != nil {
		app.logger.Error("Failed to load slides", "error", err)
		data["Flash"] = &flash{Type: "error", Message: "No se pudieron cargar los banners."}
	}
	data["Slides"] = list
	app.render(w, http.StatusOK, "slides.html", data)
}

// respondSlideList answers an HTMX slide action with the refreshed list and
// a showMessage event. Plain form posts are redirected to the list page.
func (app *adminApplication) respondSlideList(w http.ResponseWriter, r *http.Request, typ, message string) {
	if !isHTMX(r) {
		app.setFlash(w, typ, message)
		http.Redirect(w, r, "/admin/slides", http.StatusSeeOther)
		return
	}
	list, err := app.slides.List(r.Context())
	if err != nil {
		app.logger.Error("Failed to reload slides", "error", err)
		triggerMessage(w, "error", "No se pudo recargar la lista de banners.")
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	triggerMessage(w, typ, message)
	data := map[string]any{"Slides": list}
	if err := app.templates.RenderBlock(w, http.StatusOK, "slides.html", "slide_list", data); err != nil {
		app.logger.Error("Failed to render slide list", "error", err)
	}
}

// failSlideAction reports a failed HTMX slide action without swapping.
func (app *adminApplication) failSlideAction(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := http.StatusInternalServerError
	message := fmt.Sprintf("No se pudo %s.", action)
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
		message = "Ese banner ya no existe."
	} else {
		app.logger.Error("Slide action failed", "action", action, "error", err)
	}
	if !isHTMX(r) {
		if status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		app.setFlash(w, "error", message)
		http.Redirect(w, r, "/admin/slides", http.StatusSeeOther)
		return
	}
	triggerMessage(w, "error", message)
	w.Header().Set("HX-Reswap", "none")
	w.WriteHeader(status)
}

// slideMoveHandler swaps a slide with its neighbour. Moving past either
// end leaves the list unchanged.
func (app *adminApplication) slideMoveHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "slideID")
	dir, err := slides.ParseDirection(chi.URLParam(r, "direction"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := app.slides.Move(r.Context(), id, dir); err != nil {
		app.failSlideAction(w, r, err, "mover el banner")
		return
	}
	app.respondSlideList(w, r, "success", "Orden de banners actualizado.")
}

func (app *adminApplication) slideToggleHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "slideID")
	s, err := app.slides.Get(r.Context(), id)
	if err != nil {
		app.failSlideAction(w, r, err, "actualizar el banner")
		return
	}
	if err := app.slides.SetActive(r.Context(), id, !s.Active); err != nil {
		app.failSlideAction(w, r, err, "actualizar el banner")
		return
	}
	msg := "Banner oculto."
	if !s.Active {
		msg = "Banner visible."
	}
	app.respondSlideList(w, r, "success", msg)
}

func (app *adminApplication) slideDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.slides.Delete(r.Context(), chi.URLParam(r, "slideID")); err != nil {
		app.failSlideAction(w, r, err, "borrar el banner")
		return
	}
	app.respondSlideList(w, r, "success", "Banner borrado.")
}

func slideInputFrom(r *http.Request) slides.Input {
	return slides.Input{
		Title:       r.PostForm.Get("title"),
		Subtitle:    r.PostForm.Get("subtitle"),
		Description: r.PostForm.Get("description"),
		ImageURL:    r.PostForm.Get("image_url"),
		Active:      formBool(r, "active"),
	}
}

func (app *adminApplication) renderSlideForm(w http.ResponseWriter, r *http.Request, status int, s model.Slide, problem string) {
	data := app.newTemplateData(w, r, "slides")
	data["Slide"] = s
	data["ImageField"] = map[string]any{"Value": s.Image(), "MediaEnabled": app.uploader != nil}
	if problem != "" {
		data["Flash"] = &flash{Type: "error", Message: problem}
	}
	app.render(w, status, "slide_form.html", data)
}

func (app *adminApplication) slideCreateFormHandler(w http.ResponseWriter, r *http.Request) {
	app.renderSlideForm(w, r, http.StatusOK, model.Slide{Active: true}, "")
}

func (app *adminApplication) slideCreateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := slideInputFrom(r)
	s, err := app.slides.Create(r.Context(), in)
	switch {
	case err == nil:
		app.setFlash(w, "success", fmt.Sprintf("Banner %q creado.", s.Title))
		http.Redirect(w, r, "/admin/slides", http.StatusSeeOther)
	case isValidation(err):
		echo := model.Slide{Title: in.Title, Subtitle: in.Subtitle, Description: in.Description, ImageURL: in.ImageURL, Active: in.Active}
		app.renderSlideForm(w, r, http.StatusUnprocessableEntity, echo, userMessage(err))
	default:
		app.failMutation(w, r, err, "crear el banner", "/admin/slides")
	}
}

func (app *adminApplication) slideEditFormHandler(w http.ResponseWriter, r *http.Request) {
	s, err := app.slides.Get(r.Context(), chi.URLParam(r, "slideID"))
	if err != nil {
		app.loadFailed(w, r, err, "el banner")
		return
	}
	app.renderSlideForm(w, r, http.StatusOK, s, "")
}

func (app *adminApplication) slideEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "slideID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := slideInputFrom(r)
	err := app.slides.Update(r.Context(), id, in)
	switch {
	case err == nil:
		app.setFlash(w, "success", "Banner guardado.")
		http.Redirect(w, r, "/admin/slides", http.StatusSeeOther)
	case isValidation(err):
		echo := model.Slide{ID: id, Title: in.Title, Subtitle: in.Subtitle, Description: in.Description, ImageURL: in.ImageURL, Active: in.Active}
		app.renderSlideForm(w, r, http.StatusUnprocessableEntity, echo, userMessage(err))
	default:
		app.failMutation(w, r, err, "guardar el banner", "/admin/slides")
	}
}
