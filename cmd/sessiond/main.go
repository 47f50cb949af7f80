// Command sessiond serves the signup, confirmation, login and session routes
// over HTTP.
//
// Configuration comes from the environment and an optional .env file; see
// internal/config for the variables.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/config"
	"github.com/MrEthical07/goSession/internal/httpapi"
	"github.com/MrEthical07/goSession/internal/logging"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "development").Fatal("load config", zap.Error(err))
	}

	logger := logging.New(cfg.LogLevel, cfg.Mode)
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("sessiond stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	deps, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	report := deps.engine.SecurityReport()
	logger.Info("engine ready",
		zap.String("revocation_ledger", report.RevocationLedger),
		zap.String("password_algorithm", report.Password.Algorithm),
		zap.Duration("access_ttl", report.AccessTTL),
		zap.Duration("refresh_ttl", report.RefreshTTL),
		zap.Bool("login_throttle", report.LoginThrottle),
		zap.Bool("confirm_throttle", report.ConfirmThrottle),
	)
	for _, w := range report.Warnings {
		logger.Warn("security posture", zap.String("warning", w))
	}

	opts := httpapi.Options{Health: deps.health}
	if cfg.MetricsEnabled {
		opts.MetricsHandler = promexport.Handler(promexport.NewCollector(deps.engine))
	}

	router := httpapi.NewRouter(deps.engine, logger, opts)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if deps.purger != nil {
		go runPurge(ctx, deps.purger, cfg.PurgeEvery(), deps.retention, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// runPurge removes ledger rows for tokens that can no longer be presented.
func runPurge(ctx context.Context, p purger, every, retention time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("revocation purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("revocation purge", zap.Int64("removed", n))
			}
		}
	}
}
