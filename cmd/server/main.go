package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/cartsync/internal"
	"github.com/dukerupert/cartsync/internal/account"
	"github.com/dukerupert/cartsync/internal/auth"
	"github.com/dukerupert/cartsync/internal/cartstore"
	"github.com/dukerupert/cartsync/internal/domain"
	"github.com/dukerupert/cartsync/internal/email"
	"github.com/dukerupert/cartsync/internal/events"
	"github.com/dukerupert/cartsync/internal/handler"
	"github.com/dukerupert/cartsync/internal/handler/seller"
	"github.com/dukerupert/cartsync/internal/handler/storefront"
	"github.com/dukerupert/cartsync/internal/middleware"
	"github.com/dukerupert/cartsync/internal/postgres"
	"github.com/dukerupert/cartsync/internal/router"
	"github.com/dukerupert/cartsync/internal/routes"
	"github.com/dukerupert/cartsync/internal/service"
	"github.com/dukerupert/cartsync/internal/telemetry"
	"github.com/dukerupert/cartsync/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// cartStore is what the services and health check need from a cart store.
type cartStore interface {
	domain.CartStore
	Ping(ctx context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel, "service", cfg.ServiceName)
	slog.SetDefault(logger)

	// Error tracking and tracing
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
	}, logger)
	if err != nil {
		return fmt.Errorf("tracing initialization failed: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	// Database
	logger.Info("Connecting to database...")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	sqlDB := stdlib.OpenDBFromPool(pool)
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	businessMetrics := telemetry.NewBusinessMetrics("cartsync", registry)
	httpMetrics := middleware.NewMetrics("cartsync", registry)

	// Collaborators
	catalog := postgres.NewCatalogStore(pool)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	carts, err := newCartStore(ctx, cfg.Cart)
	if err != nil {
		return err
	}
	if closer, ok := carts.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	logger.Info("Cart store ready", "store", cfg.Cart.Store)

	var accounts domain.AccountLedger
	switch cfg.Accounts.Ledger {
	case "remote":
		accounts = account.NewClient(account.Config{
			BaseURL: cfg.Accounts.UserAPIURL,
			Timeout: cfg.Accounts.UserAPITimeout,
		})
	default:
		accounts = postgres.NewAccountLedger(pool, tokens)
	}
	logger.Info("Account ledger ready", "ledger", cfg.Accounts.Ledger)

	// Notifications
	sender, smtpSender := newEmailSender(cfg.Email, logger)
	channels := []service.NotifierChannel{
		{Name: "email", Notifier: email.NewOrderMailer(sender, cfg.Email.From, cfg.Email.FromName)},
	}

	var natsConn *nats.Conn
	if cfg.Events.NATSURL != "" {
		natsConn, err = events.Connect(cfg.Events.NATSURL, cfg.ServiceName, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer natsConn.Drain()
		channels = append(channels, service.NotifierChannel{
			Name:     "nats",
			Notifier: events.NewOrderEvents(natsConn, cfg.Events.OrderSubject),
		})
	}

	notifyPool := worker.NewNotifyPool(
		service.NewMultiNotifier(businessMetrics, channels...),
		worker.Config{
			WorkerID:  cfg.ServiceName + "-notify",
			Workers:   cfg.Notify.Workers,
			QueueSize: cfg.Notify.QueueSize,
			Timeout:   cfg.Notify.Timeout,
		},
		logger,
		businessMetrics,
	)

	// Services
	cartService := service.NewCartService(catalog, carts, logger, businessMetrics)
	orderService := service.NewOrderService(service.OrderServiceConfig{
		Catalog:   catalog,
		Accounts:  accounts,
		Inventory: catalog,
		Notifier:  notifyPool,
		Logger:    logger,
		Metrics:   businessMetrics,
	})

	orderLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Limits.OrderRPS,
		BurstSize:         cfg.Limits.OrderBurst,
	})
	defer orderLimiter.Stop()

	checks := map[string]handler.Pinger{
		"postgres":   handler.PingFunc(pool.Ping),
		"cart_store": carts,
	}
	if smtpSender != nil && cfg.Env == "prod" {
		checks["smtp"] = smtpSender
	}
	if natsConn != nil {
		checks["nats"] = handler.PingFunc(func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		})
	}

	// Router
	global := []router.Middleware{
		router.Recovery(logger),
		middleware.RequestID,
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware,
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		middleware.MaxBodySize(cfg.Limits.MaxBodyBytes),
		middleware.Timeout(cfg.Limits.RequestTimeout),
	}
	if len(cfg.CORSOrigins) > 0 {
		global = append(global, router.CORS(cfg.CORSOrigins))
	}
	r := router.New(global...)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  handler.NewHealthHandler(checks),
		MetricsHandler: httpMetrics.Handler(),
	})
	routes.RegisterSearchRoutes(r, routes.SearchDeps{
		SearchHandler: storefront.NewSearchHandler(catalog),
	})
	routes.RegisterCustomerRoutes(r, routes.CustomerDeps{
		CartHandler:  storefront.NewCartHandler(cartService, orderService),
		Verifier:     tokens,
		OrderLimiter: orderLimiter,
	})
	routes.RegisterSellerRoutes(r, routes.SellerDeps{
		ProductHandler: seller.NewProductHandler(catalog),
		Verifier:       tokens,
	})
	r.Fallback(http.HandlerFunc(handler.NotFoundResponse))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := notifyPool.Stop(shutdownCtx); err != nil {
		logger.Error("Notification pool did not drain", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}

func newCartStore(ctx context.Context, cfg internal.CartConfig) (cartStore, error) {
	if cfg.Store == "memory" {
		return cartstore.NewMemoryStore(), nil
	}
	store, err := cartstore.NewRedisStore(ctx, cartstore.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("cart store initialization failed: %w", err)
	}
	return store, nil
}

// newEmailSender picks Postmark when a token is configured, SMTP otherwise.
// The SMTP sender is also returned so it can be health checked.
func newEmailSender(cfg internal.EmailConfig, logger *slog.Logger) (email.Sender, *email.SMTPSender) {
	if cfg.PostmarkToken != "" {
		logger.Info("Using Postmark email provider")
		return email.NewPostmarkSender(cfg.PostmarkToken, cfg.From, ""), nil
	}
	logger.Info("Using SMTP email provider", "host", cfg.Host, "port", cfg.Port)
	smtp := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
	}, logger)
	return smtp, smtp
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
