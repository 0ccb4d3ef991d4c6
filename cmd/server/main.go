package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-carousel/pkg/carousel/api"
	"github.com/tendant/simple-carousel/pkg/carousel/config"
)

func main() {
	envHelp := flag.Bool("env-help", false, "print the supported environment variables and exit")
	flag.Parse()
	if *envHelp {
		config.EnvUsage(os.Stdout)
		return
	}

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx := context.Background()
	rt, err := cfg.Build(ctx)
	if err != nil {
		slog.Error("Failed to build carousel service", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	var metricsGuard api.Middleware
	if cfg.MetricsAPIKeySHA256 != "" {
		mw, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"metrics": cfg.MetricsAPIKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			os.Exit(1)
		}
		metricsGuard = mw
	}

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	routes(server.R, rt, metricsGuard)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           server.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Carousel server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"storage", cfg.Storage.Type,
			"base_path", cfg.BasePath)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	level, _ := cfg.SlogLevel()
	if cfg.IsDevelopment() {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// routes mounts the carousel, media and metrics endpoints on r.
// /metrics is only served behind metricsGuard or in development.
func routes(r chi.Router, rt *config.Runtime, metricsGuard api.Middleware) {
	cfg := rt.Config
	carouselHandler := api.NewCarouselHandler(rt.Service, rt.Renderer, rt.Authorizer, cfg.HandlerConfig())
	mediaHandler := api.NewMediaHandler(rt.BlobStore)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.RequestID)
		r.Use(chimiddleware.RealIP)
		r.Use(api.LoggingMiddleware(slog.Default()))
		r.Use(api.MetricsMiddleware(rt.Metrics))

		r.Mount(cfg.BasePath, carouselHandler.Routes())
		r.Mount(cfg.MediaURL, mediaHandler.Routes())

		switch {
		case metricsGuard != nil:
			r.With(metricsGuard).Handle("/metrics", rt.Metrics.Handler())
		case cfg.IsDevelopment():
			r.Handle("/metrics", rt.Metrics.Handler())
		}
	})
}
