package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/krono/backend/api/handler"
	"github.com/krono/backend/internal/config"
	"github.com/krono/backend/internal/infrastructure/buffer"
	"github.com/krono/backend/internal/infrastructure/mail"
	"github.com/krono/backend/internal/infrastructure/monitor"
	pgInfra "github.com/krono/backend/internal/infrastructure/postgres"
	redisInfra "github.com/krono/backend/internal/infrastructure/redis"
	"github.com/krono/backend/internal/middleware"
	"github.com/krono/backend/internal/router"
	"github.com/krono/backend/internal/services"
	"github.com/krono/backend/internal/services/lifecycle"
	"github.com/krono/backend/pkg/httpcontext"
	"github.com/krono/backend/pkg/logger"
	"github.com/krono/backend/repository/postgres"
	redisRepo "github.com/krono/backend/repository/redis"
	analyticsUC "github.com/krono/backend/usecase/analytics"
	authUC "github.com/krono/backend/usecase/auth"
	exportUC "github.com/krono/backend/usecase/export"
	profileUC "github.com/krono/backend/usecase/profile"
	taskUC "github.com/krono/backend/usecase/task"
	tasktypeUC "github.com/krono/backend/usecase/tasktype"
	trackerUC "github.com/krono/backend/usecase/tracker"
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

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "buffer")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	trackerStore := postgres.NewTrackerStore(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	taskTypeRepo := postgres.NewTaskTypeRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	exportRepo := postgres.NewScheduledExportRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, 24*time.Hour)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		profileRepo,
		taskRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
		},
	)
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)
	smtpSender := mail.NewSMTPSender(cfg.SMTP, zapLogger)

	trackerUseCase := trackerUC.New(trackerStore, taskRepo, taskTypeRepo, profileRepo, eventRepo, nil, zapLogger)
	taskUseCase := taskUC.New(taskRepo, taskTypeRepo, bufferBridge, zapLogger)
	taskTypeUseCase := tasktypeUC.New(taskTypeRepo, profileRepo, zapLogger)
	analyticsUseCase := analyticsUC.New(taskRepo, taskTypeRepo, nil, zapLogger)
	exportUseCase := exportUC.New(taskRepo, taskTypeRepo, profileRepo, exportRepo, smtpSender, nil, zapLogger)
	authUseCase := authUC.New(profileRepo, sessionRepo, zapLogger)
	profileUseCase := profileUC.New(profileRepo, bufferBridge, zapLogger)

	if cfg.Heartbeat.Enabled {
		watchdog := services.NewHeartbeatWatchdog(trackerUseCase, profileRepo, zapLogger, services.WatchdogConfig{
			Interval:  cfg.Heartbeat.Interval,
			Threshold: cfg.Heartbeat.Threshold,
		})
		watchdog.Start()
		manager.Register("heartbeat_watchdog", func(ctx context.Context) error {
			watchdog.Stop(ctx)
			return nil
		})
	}

	if cfg.Export.SchedulerEnabled {
		scheduler := services.NewExportScheduler(exportRepo, exportUseCase, zapLogger, services.SchedulerConfig{
			Interval: cfg.Export.SchedulerInterval,
		})
		scheduler.Start()
		manager.Register("export_scheduler", func(ctx context.Context) error {
			scheduler.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, time.Hour),
		Profile:   apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Tracking:  apiHandler.NewTrackingHandler(trackerUseCase, ctxAdapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		TaskType:  apiHandler.NewTaskTypeHandler(taskTypeUseCase, ctxAdapter, zapLogger),
		Analytics: apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Export:    apiHandler.NewExportHandler(exportUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

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
