package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/mediacms/api/internal/authz"
	"github.com/forgo/mediacms/api/internal/config"
	"github.com/forgo/mediacms/api/internal/database"
	"github.com/forgo/mediacms/api/internal/handler"
	"github.com/forgo/mediacms/api/internal/jobs"
	"github.com/forgo/mediacms/api/internal/metrics"
	"github.com/forgo/mediacms/api/internal/middleware"
	"github.com/forgo/mediacms/api/internal/migrate"
	"github.com/forgo/mediacms/api/internal/repository"
	"github.com/forgo/mediacms/api/internal/service"
	"github.com/forgo/mediacms/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Apply pending migrations
	if cfg.Taxonomy.MigrateOnStart {
		var seed migrate.SeedLoader
		if cfg.Taxonomy.SeedPath != "" {
			seed = migrate.SeedFile(cfg.Taxonomy.SeedPath)
		}
		runner := migrate.NewRunner(migrate.RunnerConfig{
			DB:         db,
			Store:      repository.NewMigrationRepository(db),
			Migrations: migrate.Migrations(seed),
			Logger:     logger,
		})
		applied, err := runner.Up(ctx)
		if err != nil {
			slog.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("migrations applied", slog.Int("count", len(applied)))
	}

	// Initialize JWT verification; the server never signs tokens
	jwtService, err := jwt.NewService(jwt.Config{
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize authorization policy
	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{PolicyPath: cfg.Authz.PolicyPath})
	if err != nil {
		slog.Error("failed to initialize authorization", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	techniqueRepo := repository.NewTechniqueRepository(db)
	techniqueMediaRepo := repository.NewTechniqueMediaRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)

	// Initialize services
	techniqueService := service.NewTechniqueService(service.TechniqueServiceConfig{
		Techniques:     techniqueRepo,
		TechniqueMedia: techniqueMediaRepo,
		Media:          mediaRepo,
		Authorizer:     enforcer,
		Logger:         logger,
	})
	mediaService := service.NewMediaService(service.MediaServiceConfig{
		Media:      mediaRepo,
		Authorizer: enforcer,
	})
	catalogService := service.NewCatalogService(categoryRepo, tagRepo, enforcer)

	// Start background jobs
	if cfg.Taxonomy.CheckInterval > 0 {
		treeCheck := jobs.NewTreeCheckProcessor(jobs.TreeCheckConfig{
			Checker:      techniqueService,
			Interval:     cfg.Taxonomy.CheckInterval,
			InitialDelay: 5 * time.Second,
			Repair:       cfg.Taxonomy.RepairDrift,
			Logger:       logger,
		})
		treeCheck.Start()
		defer treeCheck.Stop()
	}

	// Initialize per-request infrastructure
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Create router and register routes
	mux := http.NewServeMux()
	routes := &handler.Routes{
		Health:      handler.NewHealthHandler(db),
		Techniques:  handler.NewTechniqueHandler(techniqueService),
		Media:       handler.NewMediaHandler(mediaService),
		Catalog:     handler.NewCatalogHandler(catalogService),
		Metrics:     metrics.Handler(),
		Auth:        middleware.Auth(jwtService),
		Idempotency: middleware.Idempotency(idempotencyStore),
	}
	routes.Register(mux)

	// Apply global middleware
	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.Metrics,
		middleware.CORS(cfg.Server.AllowedOrigins),
	}
	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.RateLimit.Rate,
			Window: cfg.RateLimit.Window,
			Burst:  cfg.RateLimit.Burst,
		})
		defer rateLimiter.Stop()
		chain = append(chain, middleware.RateLimit(rateLimiter))
	}
	chain = append(chain, middleware.Compress)
	wrapped := middleware.Chain(mux, chain...)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
