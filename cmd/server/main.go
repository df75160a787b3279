package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/IsratTanny/DistribuTrack/internal/adapter/handler"
	"github.com/IsratTanny/DistribuTrack/internal/adapter/storage"
	"github.com/IsratTanny/DistribuTrack/internal/config"
	"github.com/IsratTanny/DistribuTrack/internal/core/service"
	"github.com/IsratTanny/DistribuTrack/internal/logger"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		zl.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		zl.Fatal("failed to ping mysql", zap.Error(err))
	}
	zl.Info("connected to mysql")

	if cfg.MigrateOnStart {
		if err := storage.RunMigrations(db); err != nil {
			zl.Fatal("failed to migrate schema", zap.Error(err))
		}
		zl.Info("schema up to date")
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		zl.Fatal("failed to connect redis", zap.Error(err))
	}
	zl.Info("connected to redis")

	// Initialize adapters and services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb, cfg.SessionTTL, cfg.IdempotencyTTL)

	orderService := service.NewOrderService(mysqlAdapter, redisAdapter, zl.Named("orders"))
	cartService := service.NewCartService(mysqlAdapter, zl.Named("cart"))

	// Start gRPC server
	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(orderService, redisAdapter, zl.Named("grpc")))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		zl.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	go func() {
		zl.Info("gRPC server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: handler.NewRouter(handler.RouterConfig{
			Orders:         handler.NewHTTPHandler(orderService),
			Cart:           handler.NewCartHandler(cartService),
			Sessions:       redisAdapter,
			Logger:         zl.Named("http"),
			RequestTimeout: cfg.RequestTimeout,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Warn("HTTP server forced to shutdown", zap.Error(err))
	}
	zl.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	zl.Info("gRPC server stopped")

	rdb.Close()
	db.Close()
	zl.Info("connections closed")
}
