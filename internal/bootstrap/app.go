package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
	"github.com/moodmirror/moodmirror/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	moodSvc mood.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, moodSvc mood.Service) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, moodSvc: moodSvc}
}

// Run starts the HTTP server and blocks until ctx ends or the server fails.
func (a *App) Run(ctx context.Context) error {
	status := a.moodSvc.Status()
	if !status.SubmissionEnabled {
		a.logger.Warn("starting without mood submission", "reason", status.Warning)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "model", status.Model, "prompt_version", status.PromptVersion)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := a.server.Shutdown(shutdownCtx)
		a.logger.Info("feed counters at shutdown", "counters", a.moodSvc.Counters())
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
