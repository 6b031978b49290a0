// Package templating parses page templates into a cache. Every page is
// parsed together with the shared layout.html and any partials, and is
// rendered through the layout.
package templating

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const layoutName = "layout.html"

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"price": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"join":  strings.Join,
	"year":  func() int { return time.Now().Year() },
	"lower": strings.ToLower,
	"add":   func(a, b int) int { return a + b },
}

// Engine holds one parsed template set per page.
type Engine struct {
	pages map[string]*template.Template
}

// NewEngine parses every *.html page under dir in fsys. Files named
// layout.html or starting with "_" are shared by all pages rather than
// pages of their own.
func NewEngine(fsys fs.FS, dir string) (*Engine, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("error reading template directory %s: %w", dir, err)
	}
	shared := []string{path.Join(dir, layoutName)}
	var pages []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".html" || name == layoutName {
			continue
		}
		if strings.HasPrefix(name, "_") {
			shared = append(shared, path.Join(dir, name))
			continue
		}
		pages = append(pages, name)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found in %s", dir)
	}

	e := &Engine{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		ts, err := template.New(page).Funcs(Funcs).ParseFS(fsys, shared...)
		if err != nil {
			return nil, fmt.Errorf("error parsing layout template: %w", err)
		}
		ts, err = ts.ParseFS(fsys, path.Join(dir, page))
		if err != nil {
			return nil, fmt.Errorf("error parsing page template %s: %w", page, err)
		}
		e.pages[page] = ts
	}
	return e, nil
}

// Has reports whether page was parsed.
func (e *Engine) Has(page string) bool {
	_, ok := e.pages[page]
	return ok
}

// Render executes page through the layout into a buffer and writes it with
// status. Nothing is written when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, page string, data any) error {
	ts, ok := e.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found in cache", page)
	}
	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderBlock executes a single named template from page's set, without
// the layout. HTMX requests use it to swap fragments.
func (e *Engine) RenderBlock(w http.ResponseWriter, status int, page, block string, data any) error {
	ts, ok := e.pages[page]
	if !ok {
		return fmt.Errorf("template %s not found in cache", page)
	}
	var buf bytes.Buffer
	if err := ts.ExecuteTemplate(&buf, block, data); err != nil {
		return fmt.Errorf("failed to execute block %s of %s: %w", block, page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
