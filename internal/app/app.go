package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/config"
	"github.com/fedaabdelghany-code/dubai2025/internal/push"
	"github.com/fedaabdelghany-code/dubai2025/internal/scheduler"
	"github.com/fedaabdelghany-code/dubai2025/internal/server"
	"github.com/fedaabdelghany-code/dubai2025/internal/store"
)

// App wires the store, the reminder scheduler, the timeline watcher and the
// HTTP API together and owns their lifecycle.
type App struct {
	cfg  config.Config
	log  *zap.Logger
	loc  *time.Location
	repo store.Repo
}

// New validates configuration that must be resolved up front.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	loc, err := time.LoadLocation(cfg.EventTZ)
	if err != nil {
		return nil, fmt.Errorf("load event timezone %q: %w", cfg.EventTZ, err)
	}
	return &App{cfg: cfg, log: log, loc: loc}, nil
}

// Run starts everything and blocks until a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting companion backend",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("eventTZ", a.cfg.EventTZ),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	pusher := push.NewClient(a.cfg.OneSignalAppID, a.cfg.OneSignalAPIKey, a.cfg.OneSignalURL)
	sched := scheduler.New(repo, a.log, pusher,
		a.cfg.TickInterval, a.cfg.ReminderLead, a.cfg.ReminderWindow)

	srv := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      server.New(a.log, repo, sched).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx)
	go a.watchTimeline(ctx)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if closeErr := a.repo.Close(); closeErr != nil {
		a.log.Warn("store close error", zap.Error(closeErr))
	}
	return nil
}
