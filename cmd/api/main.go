package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/tindahanph/storefront-backend/api/routes"
	"github.com/tindahanph/storefront-backend/internal/cart"
	"github.com/tindahanph/storefront-backend/internal/checkout"
	"github.com/tindahanph/storefront-backend/internal/customers"
	"github.com/tindahanph/storefront-backend/internal/inventory"
	"github.com/tindahanph/storefront-backend/internal/orders"
	"github.com/tindahanph/storefront-backend/internal/products"
	"github.com/tindahanph/storefront-backend/internal/qrcodes"
	"github.com/tindahanph/storefront-backend/internal/returns"
	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/db"
	"github.com/tindahanph/storefront-backend/pkg/logger"
	"github.com/tindahanph/storefront-backend/pkg/metrics"
	"github.com/tindahanph/storefront-backend/pkg/migrate"
	"github.com/tindahanph/storefront-backend/pkg/paymongo"
	"github.com/tindahanph/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	gateway, err := paymongo.NewClient(context.Background(), cfg.PayMongo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap paymongo client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gormDB := dbClient.DB()
	productsRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	ledger := inventory.NewLedger(gormDB)

	customersService, err := customers.NewService(customersRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	guestStore, err := cart.NewGuestStore(redisClient, cfg.Checkout.GuestCartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart store", err)
		os.Exit(1)
	}

	sessionStore, err := checkout.NewSessionStore(redisClient, cfg.Checkout.PendingSessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment session store", err)
		os.Exit(1)
	}

	qrService, err := qrcodes.NewService(qrcodes.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create qr code service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartRepo,
		ordersRepo,
		ledger,
		dbClient,
		gateway,
		sessionStore,
		qrService,
		customersService,
		customersService,
		cfg.Checkout,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	returnsService, err := returns.NewService(ordersRepo, ledger, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			Registry:  registry,
			DB:        dbClient,
			Redis:     redisClient,
			Customers: customersService,
			Products:  productsRepo,
			Cart:      cartService,
			GuestCart: guestStore,
			Checkout:  checkoutService,
			Orders:    ordersService,
			Returns:   returnsService,
			QRCodes:   qrService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown completed with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}
