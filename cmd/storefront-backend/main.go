package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velocart/storefront-backend/internal/api/handlers"
	"github.com/velocart/storefront-backend/internal/api/middleware"
	"github.com/velocart/storefront-backend/internal/config"
	"github.com/velocart/storefront-backend/internal/health"
	"github.com/velocart/storefront-backend/internal/identity"
	"github.com/velocart/storefront-backend/internal/metrics"
	"github.com/velocart/storefront-backend/internal/ratelimit"
	service "github.com/velocart/storefront-backend/internal/services"
	"github.com/velocart/storefront-backend/internal/store"
	"github.com/velocart/storefront-backend/pkg/sendGrid"
	"github.com/velocart/storefront-backend/pkg/stripe"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx := context.Background()

	// Document store setup; local runs skip the managed store entirely.
	var (
		docStore store.Store
		err      error
	)

	if cfg.Env == "local" {
		docStore = store.NewMemory()
		slog.Warn("⚠️ Using in-memory store, state is not persisted")
	} else {
		docStore, err = store.NewFirestore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			slog.Error("❌ Error accessing the document store", "error", err.Error())
			os.Exit(1)
		}
	}

	defer func() {
		if err := docStore.Close(); err != nil {
			slog.Error("⚠️ Error closing store connection", slog.String("error", err.Error()))
		}
	}()

	// Identity provider setup
	provider, err := identity.NewFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		slog.Error("❌ Error initializing identity provider", "error", err.Error())
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := ratelimit.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	limiter := ratelimit.NewRedisLimiter(redisClient, cfg.RateConfig.MaxAttempts, cfg.RateConfig.WindowSize)

	gateway := stripe.NewStripeGateway(cfg.Stripe.APIKey)
	emailService := sendGrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	notificationService := service.NewNotificationService(provider, emailService)
	orderService := service.NewOrderService(docStore, gateway, notificationService, cfg.Stripe.Currency)
	orderHandler := handlers.NewOrderHandler(orderService)
	profileService := service.NewProfileService(provider)
	profileHandler := handlers.NewProfileHandler(profileService)

	authMiddleware := middleware.NewAuthMiddleware(provider)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter)

	healthHandler, err := health.NewHealthHandler(cfg, docStore)
	if err != nil {
		slog.Error("❌ Error creating health handler", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /processPaymentAndCreateOrder",
		authMiddleware.Authenticate(rateLimitMiddleware.Limit(orderHandler.ProcessPaymentAndCreateOrder())))
	routerMux.HandleFunc("POST /updateUserProfile",
		authMiddleware.Authenticate(profileHandler.UpdateUserProfile()))
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}
}
