package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/nosurf"

	"sportstore/internal/auth"
	"sportstore/internal/catalog"
	"sportstore/internal/config"
	"sportstore/internal/dashboard"
	"sportstore/internal/media"
	"sportstore/internal/seed"
	"sportstore/internal/slides"
	"sportstore/internal/storage"
	"sportstore/internal/storage/backend"
	"sportstore/internal/templating"
	"sportstore/web"
)

// adminApplication holds the application-wide dependencies for the admin server.
type adminApplication struct {
	logger    *slog.Logger
	cfg       config.Config
	store     storage.DataStore
	degraded  bool // running on the in-memory fallback store
	catalog   *catalog.Service
	slides    *slides.Manager
	dashboard *dashboard.Service
	auth      *auth.Service
	uploader  media.Uploader // nil when uploads are not configured
	templates *templating.Engine
	static    fs.FS
}

// newTemplateData creates a map of data to pass to templates, including CSRF
// token, the signed in user, any pending flash message and active nav item.
func (app *adminApplication) newTemplateData(w http.ResponseWriter, r *http.Request, activeNav string) map[string]any {
	data := map[string]any{
		"CSRFToken":    nosurf.Token(r),
		"ActiveNav":    activeNav,
		"StoreName":    app.cfg.StoreName,
		"MediaEnabled": app.uploader != nil,
	}
	if sess, ok := sessionFrom(r.Context()); ok {
		data["User"] = &sess
	}
	if f := popFlash(w, r); f != nil {
		data["Flash"] = f
	}
	return data
}

func newAdminApplication(cfg config.Config, logger *slog.Logger, store storage.DataStore, uploader media.Uploader) (*adminApplication, error) {
	templates, err := templating.NewEngine(web.FS, "admin/templates")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(web.FS, "admin/static")
	if err != nil {
		return nil, err
	}
	authService, err := auth.NewService(store, logger, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &adminApplication{
		logger:    logger,
		cfg:       cfg,
		store:     store,
		catalog:   catalog.NewService(store, logger),
		slides:    slides.NewManager(store, logger),
		dashboard: dashboard.NewService(store, logger, cfg.DashboardTimeout),
		auth:      authService,
		uploader:  uploader,
		templates: templates,
		static:    static,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	addr := flag.String("addr", cfg.AdminAddr, "Address to listen on")
	flag.Parse()

	logger := cfg.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, degraded := backend.OpenOrMemory(ctx, cfg, logger)
	defer store.Close()
	if cfg.SeedDefaults || degraded {
		if _, err := seed.Load(ctx, store, seed.Defaults(), false, logger); err != nil {
			logger.Error("Failed to seed default catalog", "error", err)
		}
	}

	var uploader media.Uploader
	if cfg.MediaEnabled() {
		s3Uploader, err := media.NewS3Uploader(ctx, media.Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error("Image uploads disabled", "error", err)
		} else {
			uploader = s3Uploader
		}
	}

	app, err := newAdminApplication(cfg, logger, store, uploader)
	if err != nil {
		logger.Error("Failed to initialize admin application", "error", err)
		os.Exit(1)
	}
	app.degraded = degraded
	logger.Info("Admin UI templates cached successfully")

	if n, err := app.auth.PurgeExpired(ctx); err != nil {
		logger.Warn("Could not purge expired sessions", "error", err)
	} else if n > 0 {
		logger.Info("Purged expired sessions", "count", n)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("Starting admin server", "address", *addr, "store", cfg.StoreDriver, "degraded", degraded, "uploads", uploader != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Admin server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Admin server stopped")
}
