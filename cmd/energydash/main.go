package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"energydash/internal/backend"
	"energydash/internal/cli"
	"energydash/internal/config"
	apphttp "energydash/internal/http"
	"energydash/internal/i18n"
	"energydash/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.FromSettings("info", "text", log.ComponentApp).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	settings, err := backend.SettingsFrom(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend)).Open(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	bundle, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:  store.Store,
		Ping:   store.Ping,
		Bundle: bundle,
		Logger: logger,
	}, apphttp.Options{
		SessionTTL:         cfg.SessionTTL,
		MaxSessions:        cfg.MaxSessions,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.SecureCookies,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting energydash server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"default_locale", cfg.DefaultLocale)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", "active_sessions", srv.Sessions().Len())
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
