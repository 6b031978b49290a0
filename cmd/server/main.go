package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportstore/internal/catalog"
	"sportstore/internal/config"
	"sportstore/internal/seed"
	"sportstore/internal/slides"
	"sportstore/internal/storage/backend"
	"sportstore/internal/templating"
	"sportstore/web"
)

// application holds the storefront's dependencies.
type application struct {
	logger    *slog.Logger
	cfg       config.Config
	catalog   *catalog.Service
	slides    *slides.Manager
	templates *templating.Engine
	static    fs.FS
	// newRand returns the source used to shuffle one listing. Nil means the
	// global source.
	newRand func() *rand.Rand
}

func newApplication(cfg config.Config, logger *slog.Logger, cat *catalog.Service, sl *slides.Manager) (*application, error) {
	templates, err := templating.NewEngine(web.FS, "storefront/templates")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(web.FS, "storefront/static")
	if err != nil {
		return nil, err
	}
	return &application{
		logger:    logger,
		cfg:       cfg,
		catalog:   cat,
		slides:    sl,
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
	addr := flag.String("addr", cfg.ServerAddr, "Address to listen on")
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

	app, err := newApplication(cfg, logger, catalog.NewService(store, logger), slides.NewManager(store, logger))
	if err != nil {
		logger.Error("Failed to create template cache", "error", err)
		os.Exit(1)
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

	logger.Info("Starting storefront", "address", *addr, "store", cfg.StoreDriver, "degraded", degraded)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Storefront failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Storefront stopped")
}
