package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"sportstore/internal/auth"
	"sportstore/internal/media"
)

const maxUploadSize = 10 << 20

// loginFormHandler displays the sign in form, or skips it for a signed in admin.
func (app *adminApplication) loginFormHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if _, err := app.auth.GetSession(r.Context(), c.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	app.render(w, http.StatusOK, "login.html", app.newTemplateData(w, r, ""))
}

// loginHandler checks the credentials and starts a session.
func (app *adminApplication) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")

	sess, token, err := app.auth.SignIn(r.Context(), email, password)
	if err != nil {
		data := app.newTemplateData(w, r, "")
		data["Email"] = email
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrInvalidCredentials) {
			data["LoginError"] = "Email o contraseña incorrectos."
		} else {
			app.logger.Error("Sign in failed", "error", err)
			data["LoginError"] = "No se puede iniciar sesión en este momento. Intentá de nuevo."
			status = http.StatusServiceUnavailable
		}
		app.render(w, status, "login.html", data)
		return
	}

	app.setSessionCookie(w, token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logoutHandler ends the current session.
func (app *adminApplication) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := app.auth.SignOut(r.Context(), c.Value); err != nil {
			app.logger.Warn("Sign out failed", "error", err)
		}
	}
	app.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// dashboardHandler shows the record counts. A count that cannot be read
// shows as zero.
func (app *adminApplication) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(w, r, "dashboard")
	data["Summary"] = app.dashboard.Summary(r.Context())
	data["Degraded"] = app.degraded
	app.render(w, http.StatusOK, "dashboard.html", data)
}

type uploadResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// uploadHandler stores an image in the media bucket and returns its URL.
func (app *adminApplication) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if app.uploader == nil {
		writeJSON(w, http.StatusNotFound, uploadResponse{Error: "La carga de imágenes no está configurada."})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "El archivo es demasiado grande o está dañado."})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "No se envió ningún archivo."})
		return
	}
	defer file.Close()

	// The client's Content-Type header is ignored; the bytes decide.
	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !media.Allowed(contentType) {
		app.logger.Warn("Rejected upload", "file", header.Filename, "declared", header.Header.Get("Content-Type"), "detected", contentType)
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "Solo se pueden subir imágenes JPEG, PNG, GIF o WebP."})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "No se pudo leer el archivo."})
		return
	}

	url, err := app.uploader.Upload(r.Context(), header.Filename, contentType, file)
	if errors.Is(err, media.ErrUnsupportedType) {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Error: "Solo se pueden subir imágenes JPEG, PNG, GIF o WebP."})
		return
	}
	if err != nil {
		app.logger.Error("Image upload failed", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusBadGateway, uploadResponse{Error: "No se pudo guardar la imagen."})
		return
	}
	app.logger.Info("Image uploaded", "file", header.Filename, "url", url)
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}
