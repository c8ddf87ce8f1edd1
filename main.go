package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicportal-be/config"
	"civicportal-be/controllers"
	"civicportal-be/gateway"
	"civicportal-be/geocoding"
	"civicportal-be/logger"
	"civicportal-be/middlewares"
	"civicportal-be/routes"
	"civicportal-be/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const filesPrefix = "/api/files/"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses the OTel provider in production)
	telemetry, err := config.SetupTelemetry(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)
	slog.InfoContext(ctx, "civic portal starting", "env", cfg.Env, "gateway", cfg.GatewayBackend)

	gw, uploader, mongoClient, err := openGateway(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open gateway", "error", err)
		os.Exit(1)
	}
	if mongoClient != nil {
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				slog.ErrorContext(ctx, "mongo disconnect error", "error", err)
			}
		}()
	}

	var redisClient *redis.Client
	var drafts services.DraftStore = services.NewMemoryDraftStore()
	if cfg.Redis.Enabled() {
		redisClient, err = config.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		drafts = services.NewRedisDraftStore(redisClient, cfg.Wizard.DraftTTL)
		slog.InfoContext(ctx, "redis connected", "addr", cfg.Redis.Addr)
	} else {
		slog.WarnContext(ctx, "redis disabled: drafts kept in memory and issue rate limit off")
	}

	var geocoder services.Geocoder
	if client := geocoding.NewClient(cfg.Geocoding); client != nil {
		geocoder = client
	} else {
		slog.InfoContext(ctx, "geocoding disabled (no API key configured)")
	}

	wizard, err := services.NewWizardService(drafts, gw.Issues, uploader, geocoder, services.WizardConfig{
		EnforceSteps: cfg.Wizard.EnforceSteps,
		MaxPhotoSize: cfg.Upload.MaxBytes,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to build wizard", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := routes.Deps{
		Config:    cfg,
		Users:     gw.Users,
		Auth:      controllers.NewAuthController(gw.Users, cfg.Auth, cfg.IsProduction()),
		Wizard:    controllers.NewWizardController(wizard),
		Community: controllers.NewCommunityController(services.NewCommunityService(gw)),
		Dashboard: controllers.NewDashboardController(services.NewDashboardService(gw)),
		Views: controllers.NewViewController(
			services.NewHomeService(gw.Issues),
			services.NewMapService(gw.Issues, services.NewMapConfig(cfg.Map.CenterLat, cfg.Map.CenterLng, cfg.Map.Zoom)),
			services.NewAnalyticsService(gw.Issues),
		),
		Files: controllers.NewFileController(uploader),
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	router, err := setupRouter(cfg, deps)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// openGateway picks the entity backend. The mongo client is nil for the memory backend.
func openGateway(ctx context.Context, cfg config.Config) (*gateway.Gateway, gateway.Uploader, *mongo.Client, error) {
	if cfg.GatewayBackend == config.BackendMemory {
		slog.WarnContext(ctx, "using in-memory gateway; data is lost on restart")
		return gateway.NewMemory().Gateway(), gateway.NewMemoryUploader(filesPrefix), nil, nil
	}

	client, db, err := config.ConnectDB(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := gateway.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, nil, err
	}
	uploader, err := gateway.NewGridFSUploader(db, "uploads", filesPrefix)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, nil, err
	}
	slog.InfoContext(ctx, "MongoDB connection established", "database", cfg.Mongo.Database)
	return gateway.NewMongo(db), uploader, client, nil
}

func setupRouter(cfg config.Config, deps routes.Deps) (*gin.Engine, error) {
	router := gin.New()

	// OTel creates the span, Recovery catches panics, Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middlewares.Recovery())
	router.Use(middlewares.Logger())

	if err := routes.Setup(router, deps); err != nil {
		return nil, err
	}
	return router, nil
}
