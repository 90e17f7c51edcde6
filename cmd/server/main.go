package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/featureflags"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/handler"
	"github.com/yourorg/propertyhub/internal/infrastructure/logger"
	"github.com/yourorg/propertyhub/internal/infrastructure/redis"
	"github.com/yourorg/propertyhub/internal/observability/metrics"
	"github.com/yourorg/propertyhub/internal/observability/tracing"
	"github.com/yourorg/propertyhub/internal/reliability/circuitbreaker"
	"github.com/yourorg/propertyhub/internal/reliability/retry"
	"github.com/yourorg/propertyhub/internal/repository"
	"github.com/yourorg/propertyhub/internal/repository/memory"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/security/audit"
	"github.com/yourorg/propertyhub/internal/security/auth"
	"github.com/yourorg/propertyhub/internal/security/middleware"
	"github.com/yourorg/propertyhub/internal/security/ratelimit"
	"github.com/yourorg/propertyhub/internal/service"
	"github.com/yourorg/propertyhub/internal/worker"
	"github.com/yourorg/propertyhub/pkg/config"
	"github.com/yourorg/propertyhub/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting propertyhub server",
		slog.String("environment", cfg.Environment),
		slog.String("storage", cfg.StorageDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "propertyhub", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Storage
	checks := map[string]handler.Check{}
	repos, closeStorage, err := openStorage(ctx, cfg, log, checks)
	if err != nil {
		log.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStorage()

	// 5. Inventory cache: Redis when configured, in-process otherwise
	var inventoryCache domain.InventoryCache = repository.NewMemoryInventoryCache()
	checks["redis"] = nil
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
		inventoryCache = repository.NewRedisInventoryCache(redisClient, breaker, log)
		checks["redis"] = redisClient.Ping
	}

	// 6. Services
	authz := security.NewAuthorizer(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "propertyhub")
	hub := feed.NewHub(log)

	authService := service.NewAuthService(repos.Profiles, tokenManager, cfg.TokenTTL, authz, log)
	occupancyService := service.NewOccupancyService(repos, inventoryCache, authz, log)
	ticketService := service.NewTicketService(repos, hub, authz, log)
	propertyService := service.NewPropertyService(repos, inventoryCache, authz, log)
	dashboardService := service.NewDashboardService(repos, occupancyService, ticketService, inventoryCache, cfg.InventoryCacheTTL, authz, log)

	// 7. Handlers and routes
	mux := handler.NewRouter(handler.Handlers{
		Health:     handler.NewHealthHandler(checks, log),
		Auth:       handler.NewAuthHandler(authService, log),
		Properties: handler.NewPropertyHandler(propertyService, log),
		Tenants:    handler.NewTenantHandler(occupancyService, log),
		Tickets:    handler.NewTicketHandler(ticketService, log),
		Dashboards: handler.NewDashboardHandler(dashboardService, log),
		Feed: handler.NewTicketFeedHandler(ticketService, hub, func() bool {
			return featureflags.Enabled(featureflags.TicketFeed)
		}, cfg.CORSAllowedOrigins, log),
		Metrics: promhttp.Handler(),
	})

	// 8. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)

	// Chain middleware: request ID -> tracing -> CORS -> JWT -> [audit] -> rate limit -> JSON validation -> metrics
	var h http.Handler = metrics.HTTPMetricsMiddleware(mux)
	h = middleware.ValidateJSONContentType(log)(h)
	h = middleware.RateLimitMiddleware(rateLimiter, log)(h)
	if featureflags.Enabled(featureflags.AuditLog) {
		h = middleware.AuditMiddleware(audit.NewLogger(log))(h)
	}
	h = middleware.JWTMiddleware(tokenManager, cfg.SignInURL, log)(h)
	h = withCORS(h, cfg.CORSAllowedOrigins)
	h = otelhttp.NewHandler(h, "http")
	rootHandler := withRequestID(h, log)

	// 9. Background occupancy check, off unless OCCUPANCY_CHECK_MINUTES is set
	if cfg.OccupancyCheckInterval > 0 {
		occupancyWorker := worker.NewOccupancyWorker(occupancyService, log, cfg.OccupancyCheckInterval, cfg.OccupancyAutoRepair)
		go occupancyWorker.Start(ctx)
	}

	// 10. Start HTTP server. No write timeout: websocket feeds are long-lived.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           rootHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
		slog.Bool("ticket_feed", featureflags.Enabled(featureflags.TicketFeed)),
		slog.Bool("audit_log", featureflags.Enabled(featureflags.AuditLog)),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop the occupancy worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// openStorage builds the repositories for the configured driver and
// registers its readiness check.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]handler.Check) (service.Repositories, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		checks["database"] = nil
		return service.Repositories{
			Profiles:   store.Profiles(),
			Properties: store.Properties(),
			Rooms:      store.Rooms(),
			Tenants:    store.Tenants(),
			Occupancy:  store.Tenants(),
			Tickets:    store.Tickets(),
		}, func() {}, nil
	}

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect database", func(ctx context.Context) (*database.ConnectionPool, error) {
		return database.NewConnectionPool(ctx, &database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxOpenConns / 2,
			ConnMaxLifetime: 30 * time.Minute,
		}, log)
	})
	if err != nil {
		return service.Repositories{}, nil, err
	}
	if err := database.Migrate(ctx, pool.GetDB()); err != nil {
		pool.Close()
		return service.Repositories{}, nil, err
	}
	checks["database"] = pool.Health

	db := pool.GetDB()
	tenants := repository.NewPostgresTenantRepository(db, log)
	return service.Repositories{
		Profiles:   repository.NewPostgresProfileRepository(db, log),
		Properties: repository.NewPostgresPropertyRepository(db, log),
		Rooms:      repository.NewPostgresRoomRepository(db, log),
		Tenants:    tenants,
		Occupancy:  tenants,
		Tickets:    repository.NewPostgresTicketRepository(db, log),
	}, func() { pool.Close() }, nil
}

// withCORS honors the configured origins and answers preflight requests
func withCORS(next http.Handler, allowed []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
