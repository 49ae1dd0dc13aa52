package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/learnlingo-api/api/swagger"
	"github.com/noah-isme/learnlingo-api/internal/favorites"
	"github.com/noah-isme/learnlingo-api/internal/gateway"
	"github.com/noah-isme/learnlingo-api/internal/handler"
	"github.com/noah-isme/learnlingo-api/internal/identity"
	"github.com/noah-isme/learnlingo-api/internal/middleware"
	"github.com/noah-isme/learnlingo-api/internal/repository"
	"github.com/noah-isme/learnlingo-api/internal/service"
	"github.com/noah-isme/learnlingo-api/internal/validation"
	"github.com/noah-isme/learnlingo-api/pkg/cache"
	"github.com/noah-isme/learnlingo-api/pkg/config"
	"github.com/noah-isme/learnlingo-api/pkg/database"
	"github.com/noah-isme/learnlingo-api/pkg/jobs"
	"github.com/noah-isme/learnlingo-api/pkg/logger"
	"github.com/noah-isme/learnlingo-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/learnlingo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/learnlingo-api/pkg/middleware/requestid"
)

// @title LearnLingo API
// @version 1.0.0
// @description Tutor catalog, favorites, and trial-lesson booking service
// @BasePath /api
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open data store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"store": store}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TeachersTTL, logr, cacheRepo != nil)

	validate := validation.New()
	teachers := service.NewTeacherService(store, cacheSvc, metrics, cfg.Cache.TeachersTTL, logr)
	stats := service.NewStatsService(teachers, cacheSvc, cfg.Cache.StatsTTL)
	reviews := service.NewReviewService(store, teachers, validate, logr)

	notifications := service.NewNotificationService(newMailer(cfg, logr), metrics, logr, service.NotificationConfig{
		Workers: cfg.Mail.Workers,
		Retries: cfg.Mail.Retries,
	})
	notifications.Start(ctx)
	defer notifications.Stop()
	bookings := service.NewBookingService(store, notifications, validate, metrics, logr)

	var verifier identity.TokenVerifier
	if v := identity.NewGoogleVerifier(cfg.Google.OAuthClientID); v != nil {
		verifier = v
	}
	provider := identity.NewProvider(store, store, verifier, validate, logr, identity.Config{
		Secret:    cfg.JWT.Secret,
		TokenTTL:  cfg.JWT.Expiration,
		Issuer:    cfg.JWT.Issuer,
		LogFilter: identity.PopupNoiseFilter(),
	})

	registry := favorites.NewRegistry(service.NewTimedFavoritesGateway(store, metrics), logr)
	unsubscribe := provider.Subscribe(func(ev identity.Event) {
		registry.OnUserChanged(ev.SessionID, ev.User)
	})
	defer unsubscribe()
	metrics.TrackEngines(registry.Len)
	favoriteSvc := service.NewFavoriteService(registry, teachers, metrics, logr)

	maintenance := service.NewMaintenanceService(store, registry, cfg.Session.EngineIdle, metrics, logr)
	sweeper := jobs.Every("session-sweep", cfg.Session.SweepInterval, maintenance.Sweep, logr)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.APIPrefix + "/auth"))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, handler.Handlers{
		Auth: handler.NewAuthHandler(provider, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		}),
		Teachers:  handler.NewTeacherHandler(teachers),
		Stats:     handler.NewStatsHandler(stats),
		Favorites: handler.NewFavoriteHandler(favoriteSvc),
		Bookings:  handler.NewBookingHandler(bookings),
		Reviews:   handler.NewReviewHandler(reviews),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}, handler.RouteConfig{
		Prefix:     cfg.APIPrefix,
		CookieName: cfg.Session.CookieName,
		Auth:       provider,
		Logger:     logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (gateway.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverFirestore:
		client, err := firestore.NewClient(ctx, cfg.Store.FirestoreProject)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		return gateway.NewFirestoreStore(client), nil
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationsPath, logr)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			if err := migrator.Up(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return gateway.NewSQLStore(db), nil
	}
}

func newMailer(cfg *config.Config, logr *zap.Logger) mailer.Sender {
	if cfg.Mail.SendGridAPIKey == "" {
		return mailer.NewLog(logr)
	}
	return mailer.NewSendGrid(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
}
