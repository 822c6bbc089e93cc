package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/shopcore/backend/api/handler"
	"github.com/shopcore/backend/internal/config"
	"github.com/shopcore/backend/internal/infrastructure/buffer"
	"github.com/shopcore/backend/internal/infrastructure/monitor"
	pgInfra "github.com/shopcore/backend/internal/infrastructure/postgres"
	redisInfra "github.com/shopcore/backend/internal/infrastructure/redis"
	"github.com/shopcore/backend/internal/middleware"
	"github.com/shopcore/backend/internal/router"
	"github.com/shopcore/backend/internal/services"
	"github.com/shopcore/backend/internal/services/lifecycle"
	"github.com/shopcore/backend/pkg/httpcontext"
	"github.com/shopcore/backend/pkg/logger"
	"github.com/shopcore/backend/pkg/token"
	"github.com/shopcore/backend/repository/postgres"
	redisRepo "github.com/shopcore/backend/repository/redis"
	accountUC "github.com/shopcore/backend/usecase/account"
	authUC "github.com/shopcore/backend/usecase/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	auditBuffer, err := buffer.Open(cfg.Audit.BufferPath, "audit")
	if err != nil {
		zapLogger.Fatal("failed to open audit buffer", zap.Error(err))
	}
	manager.Register("audit_buffer", func(ctx context.Context) error {
		return auditBuffer.Close()
	})

	mon := monitor.New(pool, redisClient, auditBuffer, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool, zapLogger)
	roleRepo := postgres.NewRoleRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	loyaltyRepo := postgres.NewLoyaltyRepository(pool)
	sessionCache := redisRepo.NewSessionCache(redisClient, cfg.Auth.SessionCacheTTL)

	auditProcessor := services.NewAuditProcessor(
		auditBuffer,
		mon,
		auditRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Audit.DrainInterval,
			BatchSize:  cfg.Audit.BatchSize,
			MaxRetries: cfg.Audit.MaxRetry,
		},
	)
	auditProcessor.Start()
	manager.Register("audit_processor", func(ctx context.Context) error {
		auditProcessor.Stop(ctx)
		return nil
	})

	auditRecorder := services.NewAuditRecorder(auditProcessor, zapLogger)

	signer, err := token.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionValidity())
	if err != nil {
		zapLogger.Fatal("token signer init failed", zap.Error(err))
	}

	authService := authUC.New(
		userRepo,
		roleRepo,
		sessionRepo,
		sessionCache,
		signer,
		auditRecorder,
		zapLogger,
		authUC.Config{BcryptCost: cfg.Auth.BcryptCost},
	)
	accountService := accountUC.New(userRepo, loyaltyRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authService, ctxAdapter, zapLogger),
		Account: apiHandler.NewAccountHandler(accountService, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	sessionAuth := middleware.SessionAuth(authService, ctxAdapter, zapLogger)
	r := router.New(handlers, sessionAuth)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
