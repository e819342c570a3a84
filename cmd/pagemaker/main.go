package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/pagemaker/internal/handlers"
	"finitefield.org/pagemaker/internal/i18n"
	"finitefield.org/pagemaker/internal/platform/config"
	"finitefield.org/pagemaker/internal/platform/observability"
	"finitefield.org/pagemaker/locales"
)

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file read before the process environment")
	flag.Parse()

	cfg, err := config.Load(config.WithEnvFile(envFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("pagemaker")

	var catalogs fs.FS = locales.FS()
	if cfg.I18n.LocalesDir != "" {
		catalogs = os.DirFS(cfg.I18n.LocalesDir)
	}
	bundle, err := i18n.Load(catalogs, i18n.Options{
		Default:   cfg.I18n.DefaultLanguage,
		Fallback:  cfg.I18n.FallbackLanguage,
		Supported: cfg.I18n.Languages,
	})
	if err != nil {
		logger.Fatal("failed to load message catalogs", zap.Error(err))
	}

	h := handlers.New(bundle, handlers.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	router := handlers.NewRouter(h, handlers.WithMiddlewares(
		middleware.RequestID,
		// RealIP trusts X-Forwarded-For; deploy behind a proxy that overwrites it.
		middleware.RealIP,
		observability.TraceMiddleware(),
		observability.InjectLoggerMiddleware(logger),
		observability.RequestLoggerMiddleware(),
		observability.RecoveryMiddleware(logger),
		middleware.Timeout(cfg.Server.RequestTimeout),
	))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("pagemaker listening",
			zap.Strings("languages", bundle.Supported()),
			zap.Bool("dev", cfg.Dev),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
