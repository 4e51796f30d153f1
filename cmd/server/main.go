package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rl1809/laventory/internal/adapter/auth"
	"github.com/rl1809/laventory/internal/adapter/gemini"
	"github.com/rl1809/laventory/internal/adapter/handler"
	"github.com/rl1809/laventory/internal/adapter/imageapi"
	"github.com/rl1809/laventory/internal/adapter/recipeapi"
	"github.com/rl1809/laventory/internal/adapter/storage"
	"github.com/rl1809/laventory/internal/config"
	"github.com/rl1809/laventory/internal/core/service"
	"github.com/rl1809/laventory/internal/logging"
	"github.com/rl1809/laventory/internal/metrics"
	"github.com/rl1809/laventory/internal/port"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log, "laventory")
	slog.SetDefault(logger)

	// Initialize store
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
		logger.Info("connections closed")
	}()
	logger.Info("store ready", "backend", store.Backend)

	// Initialize services
	ledgerOpts := []service.LedgerOption{service.WithLogger(logger)}
	if cfg.Store.AtomicUpdates {
		ledgerOpts = append(ledgerOpts, service.WithAtomicUpdates())
	}
	ledger := service.NewLedgerService(store.Store, ledgerOpts...)
	if cfg.Store.AtomicUpdates && !ledger.AtomicUpdates() {
		logger.Warn("store has no atomic increment, using read-modify-write", "backend", store.Backend)
	}

	var detector port.ObjectDetector
	var providers []port.RecipeProvider
	if cfg.Gemini.Enabled() {
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return err
		}
		detector = client
		providers = append(providers, client)
		logger.Info("gemini enabled", "model", cfg.Gemini.Model)
	}
	if cfg.RecipeAPI.Enabled() {
		providers = append(providers, recipeapi.NewClient(cfg.RecipeAPI))
		logger.Info("recipe api enabled", "base_url", cfg.RecipeAPI.BaseURL)
	}

	var finder port.ImageFinder
	if cfg.ImageAPI.Enabled() {
		finder = imageapi.NewClient(cfg.ImageAPI)
		logger.Info("image api enabled", "base_url", cfg.ImageAPI.BaseURL)
	}

	detection := service.NewDetectionService(detector, ledger, logger)
	recipes := service.NewRecipeService(ledger, logger, providers...)
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	reg := metrics.NewRegistry()

	// Initialize gRPC server
	grpcHandler := handler.NewGRPCHandler(ledger, detection, recipes, verifier, logger)
	grpcServer := handler.NewGRPCServer(grpcHandler, metrics.NewServerMetrics(reg, "grpc"), logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	httpOpts := []handler.HTTPOption{
		handler.WithSilentErrors(cfg.Ledger.SilentErrors),
		handler.WithImages(service.NewImageService(ledger, finder, logger)),
	}
	if store.Idempotency != nil {
		httpOpts = append(httpOpts, handler.WithIdempotency(store.Idempotency))
	}
	httpHandler := handler.NewHTTPHandler(ledger, detection, recipes, logger, httpOpts...)
	httpServer := handler.NewHTTPServer(httpHandler, verifier, metrics.NewServerMetrics(reg, "http"), metrics.Handler(reg), logger)

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTP.Addr())
		if err := httpServer.Start(cfg.HTTP.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	return nil
}
