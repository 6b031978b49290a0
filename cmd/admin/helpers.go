package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"sportstore/internal/auth"
	"sportstore/internal/catalog"
	"sportstore/internal/model"
	"sportstore/internal/slides"
	"sportstore/internal/storage"
)

const (
	sessionCookie = "admin_session"
	flashCookie   = "admin_flash"
)

type sessionKey struct{}

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Type    string // success or error
	Message string
}

func sessionFrom(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(model.Session)
	return sess, ok
}

// requireSession resolves the session cookie and rejects anonymous
// requests. HTMX requests are told to navigate to the login page.
func (app *adminApplication) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			app.redirectToLogin(w, r)
			return
		}
		sess, err := app.auth.GetSession(r.Context(), c.Value)
		if errors.Is(err, auth.ErrNoSession) {
			app.clearSessionCookie(w)
			app.redirectToLogin(w, r)
			return
		}
		if err != nil {
			app.logger.Error("Failed to resolve admin session", "error", err)
			http.Error(w, "Sesiones no disponibles", http.StatusServiceUnavailable)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *adminApplication) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (app *adminApplication) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   app.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *adminApplication) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlash stores a message for the page the client is redirected to.
func (app *adminApplication) setFlash(w http.ResponseWriter, typ, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(typ + ":" + message),
		Path:     "/",
		HttpOnly: true,
		Secure:   app.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message, if any.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	typ, msg, ok := strings.Cut(raw, ":")
	if !ok || msg == "" {
		return nil
	}
	return &flash{Type: typ, Message: msg}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// triggerMessage sets the HX-Trigger header read by admin.js. Browsers read
// header bytes as Latin-1, so non-ASCII runes are sent as \u escapes.
func triggerMessage(w http.ResponseWriter, typ, message string) {
	escaped, _ := json.Marshal(message)
	w.Header().Set("HX-Trigger", fmt.Sprintf(`{"showMessage": {"message": %s, "type": %q}}`, asciiJSON(escaped), typ))
}

func asciiJSON(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&sb, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&sb, `\u%04x`, r)
	}
	return sb.String()
}

func (app *adminApplication) render(w http.ResponseWriter, status int, page string, data any) {
	if err := app.templates.Render(w, status, page, data); err != nil {
		app.logger.Error("Failed to render template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// isValidation reports whether err is a user input problem that should be
// shown next to the form rather than treated as a failure.
func isValidation(err error) bool {
	return errors.Is(err, catalog.ErrInvalidInput) || errors.Is(err, slides.ErrInvalidInput)
}

// userMessage strips the sentinel prefix from validation errors.
func userMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return "Dato inválido."
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// failMutation reports a failed write. Missing records are 404, everything
// else flashes an error and sends the client back to redirectTo.
func (app *adminApplication) failMutation(w http.ResponseWriter, r *http.Request, err error, action, redirectTo string) {
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	app.logger.Error("Admin action failed", "action", action, "error", err)
	app.setFlash(w, "error", "No se pudo "+action+". Intentá de nuevo.")
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

// loadFailed reports a failed read for a form page.
func (app *adminApplication) loadFailed(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	app.logger.Error("Failed to load record for form", "what", what, "error", err)
	http.Error(w, "No se pudo cargar "+what, http.StatusServiceUnavailable)
}

func formBool(r *http.Request, name string) bool {
	v := r.PostFormValue(name)
	return v == "true" || v == "on" || v == "1"
}
