// Package app wires the bot manager components together and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/botmanager/internal/api"
	"github.com/edgard/botmanager/internal/app/tasks"
	"github.com/edgard/botmanager/internal/bots"
	"github.com/edgard/botmanager/internal/config"
	"github.com/edgard/botmanager/internal/database"
	"github.com/edgard/botmanager/internal/platform"
)

// Core holds the components shared by every entrypoint.
type Core struct {
	DB    *sqlx.DB
	Store database.Store
	Bots  *bots.Service
}

// NewCore opens the database and builds the bot service from cfg.
func NewCore(cfg *config.Config, logger *slog.Logger) (*Core, error) {
	if err := cfg.RequireWebhookBase(); err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db, logger)

	factory, err := platform.NewFactory(platform.Options{
		SDK:                cfg.Telegram.SDK,
		APIURL:             cfg.Telegram.APIURL,
		RequestTimeout:     cfg.Telegram.RequestTimeout,
		DropPendingUpdates: cfg.Webhook.DropPendingUpdates,
	})
	if err != nil {
		database.CloseDB(db)
		return nil, err
	}

	svc, err := bots.NewService(bots.Deps{
		Logger:      logger,
		Store:       store,
		NewClient:   factory,
		WebhookBase: cfg.Webhook.Base,
	})
	if err != nil {
		database.CloseDB(db)
		return nil, err
	}

	return &Core{DB: db, Store: store, Bots: svc}, nil
}

// Close releases the database.
func (c *Core) Close() {
	database.CloseDB(c.DB)
}

// App represents the HTTP service and manages its components' lifecycle.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *api.Server
	scheduler *Scheduler
}

// New creates the HTTP service on top of core.
func New(cfg *config.Config, logger *slog.Logger, core *Core) (*App, error) {
	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: logger,
		Store:  core.Store,
		Bots:   core.Bots,
	})
	sched, err := NewScheduler(logger, &cfg.Scheduler, taskMap)
	if err != nil {
		return nil, err
	}

	return &App{
		logger:    logger.With("component", "app"),
		cfg:       cfg,
		server:    api.NewServer(cfg.HTTP, logger, core.Store, core.Bots),
		scheduler: sched,
	}, nil
}

// Run starts the HTTP server and the scheduler, handling graceful shutdown on
// context cancellation. It returns an error if any component fails.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start()
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down HTTP server", "error", err)
			return fmt.Errorf("http shutdown failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if _, err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Service stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Service stopped gracefully.")
	return nil
}
