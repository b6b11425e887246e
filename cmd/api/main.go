package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/gig-service/internal/api/http"
	"github.com/spec-kit/gig-service/internal/api/http/handlers"
	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/config"
	"github.com/spec-kit/gig-service/internal/events"
	"github.com/spec-kit/gig-service/internal/feed"
	"github.com/spec-kit/gig-service/internal/observability"
	"github.com/spec-kit/gig-service/internal/persistence"
	"github.com/spec-kit/gig-service/internal/repository"
	"github.com/spec-kit/gig-service/internal/repository/memory"
	"github.com/spec-kit/gig-service/internal/service"
	"github.com/spec-kit/gig-service/internal/taxonomy"
	"github.com/spec-kit/gig-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	var (
		store *repository.Store
		pg    *persistence.Postgres
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	default:
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	deps := service.Dependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Taxonomy:   taxonomy.Default(),
		Logger:     logger,
		Metrics:    metrics,
	}
	arbiter := service.NewClaimArbiter(deps)
	gigService := service.NewGigService(deps, arbiter)
	applicationService := service.NewApplicationService(deps)
	feedbackService := service.NewFeedbackService(deps)
	userService := service.NewUserService(deps)
	authService := service.NewAuthService(cfg.Auth, store.Users, logger)

	registry := feed.NewRegistry(store.Gigs, logger, metrics)
	defer registry.Close()
	if redis != nil {
		bridge := feed.NewRedisBridge(redis.Client, cfg.Feed.RedisChannel, registry, logger)
		events.SubscribeAll(dispatcher, events.GigEventTypes, bridge.Handler())
		go bridge.Run(ctx)
	} else {
		events.SubscribeAll(dispatcher, events.GigEventTypes, feed.LocalNotifier(registry))
	}

	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger))

	if cfg.Reconcile.Enabled {
		reconciler := worker.NewReconciler(store, dispatcher, cfg.Reconcile.Schedule, logger, metrics)
		if err := reconciler.Start(ctx); err != nil {
			logger.Fatal("failed to start reconciler", zap.Error(err))
		}
		defer reconciler.Stop()
	}

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService, gigService, feedbackService),
		Gigs:           handlers.NewGigsHandler(gigService, registry, logger),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		Feedback:       handlers.NewFeedbackHandler(feedbackService),
		Categories:     handlers.NewCategoriesHandler(deps.Taxonomy),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users),
		Metrics:        metrics,
		MetricsPath:    metricsPath,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	// Closing the registry ends open event streams so Shutdown can drain.
	registry.Close()
	cancel()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
