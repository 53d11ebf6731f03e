package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cart-pricing-service/internal/api"
	"cart-pricing-service/internal/config"
	"cart-pricing-service/internal/logger"
	"cart-pricing-service/internal/service"
	"cart-pricing-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultAppName = "CartPricingService"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(logger.ForEnv(cfg.IsDevelopment(), cfg.LogLevel))
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger = appLogger.With(zap.String("service", defaultAppName))
	appLogger.Info("configuration loaded",
		zap.String("app_env", cfg.AppEnv),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("key_prefix", cfg.Storage.KeyPrefix),
	)

	// --- Storage ---
	backend, err := openBackend(context.Background(), cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to open storage backend", zap.Error(err))
	}
	kv := store.New(backend, appLogger)

	// --- Catalog & Services ---
	products, err := loadCatalog(cfg)
	if err != nil {
		kv.Close()
		appLogger.Fatal("failed to load catalog", zap.Error(err))
	}
	appLogger.Info("catalog loaded", zap.Int("products", products.Len()))

	carts := service.NewCartService(products, kv, cfg.Storage.KeyPrefix, appLogger)
	preferences := service.NewPreferenceService(kv, cfg.Storage.KeyPrefix, defaultTheme(cfg))

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(products, carts, preferences, appLogger)
	grpcAPIHandler := api.NewGRPCHandler(carts, appLogger)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, cfg, appLogger)
	registerHealthCheck(httpRouter, appLogger, kv)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		appLogger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		appLogger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer, healthServer := setupGRPCServer(appLogger, grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		appLogger.Fatal("failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	go func() {
		appLogger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Fatal("gRPC server Serve error", zap.Error(err))
		}
		appLogger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(appLogger, httpServer, grpcServer, healthServer, kv, shutdownComplete)

	<-shutdownComplete
	appLogger.Info("service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, cfg *config.Config, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(api.CORS(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Debug("base HTTP middleware registered")
}

func registerHealthCheck(router *chi.Mux, logger *zap.Logger, kv *store.Store) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		storageStatus := "healthy"
		if err := kv.Ping(ctx); err != nil {
			storageStatus = "unhealthy"
			logger.Warn("health check storage ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // always 200, payload carries the detail
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"storage":     storageStatus,
		})
	})
	logger.Debug("HTTP health check registered", zap.String("path", healthPath))
}

func setupGRPCServer(logger *zap.Logger, grpcAPIHandler *api.GRPCHandler) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.UnaryInterceptor(api.UnaryLoggingInterceptor(logger)))

	api.RegisterCartServiceServer(s, grpcAPIHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(api.CartServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)

	reflection.Register(s)
	logger.Debug("gRPC services registered", zap.String("service", api.CartServiceName))
	return s, healthServer
}

func waitForShutdown(
	logger *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	healthServer *health.Server,
	kv *store.Store,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	healthServer.Shutdown()
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	if err := kv.Close(); err != nil {
		logger.Warn("error closing storage backend", zap.Error(err))
	}
	logger.Info("graceful shutdown sequence completed")
}
