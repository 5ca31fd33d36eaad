package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/config"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/database"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/seed"
	"github.com/fekuna/omnipos-checkout-service/internal/server"

	checkoutH "github.com/fekuna/omnipos-checkout-service/internal/checkout/handler"
	checkoutRepoPkg "github.com/fekuna/omnipos-checkout-service/internal/checkout/repository"
	checkoutUCPkg "github.com/fekuna/omnipos-checkout-service/internal/checkout/usecase"

	notificationH "github.com/fekuna/omnipos-checkout-service/internal/notification/handler"
	notificationRepoPkg "github.com/fekuna/omnipos-checkout-service/internal/notification/repository"
	"github.com/fekuna/omnipos-checkout-service/internal/notification/scheduler"
	notificationUCPkg "github.com/fekuna/omnipos-checkout-service/internal/notification/usecase"

	prodH "github.com/fekuna/omnipos-checkout-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-checkout-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-checkout-service/internal/product/usecase"

	subH "github.com/fekuna/omnipos-checkout-service/internal/subscription/handler"
	subRepoPkg "github.com/fekuna/omnipos-checkout-service/internal/subscription/repository"
	subUCPkg "github.com/fekuna/omnipos-checkout-service/internal/subscription/usecase"

	tenantRepoPkg "github.com/fekuna/omnipos-checkout-service/internal/tenant/repository"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg, err := config.LoadEnv()
	if err != nil {
		panic(err)
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := database.Open(ctx, &database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		appLogger.Fatal("Could not apply schema", zap.Error(err))
	}
	appLogger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	// 4. Initialize Repositories
	tenantRepo := tenantRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	checkoutRepo := checkoutRepoPkg.NewPGRepository(db)
	notificationRepo := notificationRepoPkg.NewPGRepository(db)
	subRepo := subRepoPkg.NewPGRepository(db)

	if cfg.Server.SeedDemo {
		if err := seed.NewSeeder(tenantRepo, prodRepo, subRepo, appLogger).Run(ctx, time.Now()); err != nil {
			appLogger.Fatal("Could not seed demo data", zap.Error(err))
		}
	}

	// 5. Initialize Redis (optional, scheduler lease)
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5.5 Initialize Kafka Producer (optional, transaction events)
	var checkoutOpts []checkoutUCPkg.Option
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()
		checkoutOpts = append(checkoutOpts, checkoutUCPkg.WithPublisher(producer))
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		appLogger.Fatal("Invalid scheduler timezone", zap.String("timezone", cfg.Scheduler.Timezone), zap.Error(err))
	}

	// 6. Initialize UseCases
	notificationUC := notificationUCPkg.NewNotificationUseCase(notificationRepo, appLogger, notificationUCPkg.WithLocation(loc))
	checkoutUC := checkoutUCPkg.NewCheckoutUseCase(checkoutRepo, tenantRepo, appLogger, checkoutOpts...)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, appLogger)
	subUC := subUCPkg.NewSubscriptionUseCase(subRepo, tenantRepo, notificationUC, appLogger)

	// 6.5 Start Notification Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var schedOpts []scheduler.Option
		if redisClient != nil {
			schedOpts = append(schedOpts, scheduler.WithLocker(redisClient))
		}
		sched = scheduler.New(scheduler.Config{
			Spec:     cfg.Scheduler.Spec,
			LeaseKey: cfg.Scheduler.LeaseKey,
			LeaseTTL: cfg.Scheduler.LeaseTTL,
		}, tenantRepo, prodRepo, notificationUC, appLogger, schedOpts...)
		if err := sched.Start(ctx); err != nil {
			appLogger.Fatal("Could not start scheduler", zap.Error(err))
		}
	}

	// 7. Initialize Handlers
	httpServer := server.NewServer(server.Handlers{
		Checkout:     checkoutH.NewCheckoutHandler(checkoutUC, appLogger),
		Product:      prodH.NewProductHandler(prodUC, appLogger),
		Notification: notificationH.NewNotificationHandler(notificationUC, appLogger),
		Subscription: subH.NewSubscriptionHandler(subUC, appLogger),
	}, appLogger)

	// 8. Start HTTP and gRPC health servers
	go func() {
		addr := net.JoinHostPort(cfg.Server.HTTPHost, cfg.Server.HTTPPort)
		if err := httpServer.Start(addr); err != nil {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}
	grpcServer, healthServer := server.NewGRPCServer(appLogger)

	appLogger.Info("Starting gRPC health server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	// Drain event publishes before the deferred producer close
	checkoutUC.Wait()
	appLogger.Info("Server stopped")
}
