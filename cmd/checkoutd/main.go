package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lokapasar/checkout/api/routes"
	checkoutsvc "github.com/lokapasar/checkout/internal/checkout"
	"github.com/lokapasar/checkout/internal/payment"
	"github.com/lokapasar/checkout/pkg/commerce"
	"github.com/lokapasar/checkout/pkg/config"
	"github.com/lokapasar/checkout/pkg/logger"
	"github.com/lokapasar/checkout/pkg/metrics"
	"github.com/lokapasar/checkout/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkoutd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkoutd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	commerceClient, err := commerce.NewClient(cfg.Commerce, logg,
		commerce.WithBearerToken(cfg.Commerce.BearerToken))
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	var sessionStore checkoutsvc.SessionStore
	var redisPinger routesPinger
	if cfg.Redis.URL != "" {
		redisClient, err := redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store, err := checkoutsvc.NewRedisStore(redisClient, cfg.Session.TTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create redis session store", err)
			os.Exit(1)
		}
		sessionStore = store
		redisPinger = redisClient
	} else {
		sessionStore = checkoutsvc.NewMemoryStore(cfg.Session.TTL)
		logg.Info(context.Background(), "redis url not set, using in-memory session store")
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Logger:      logg,
		Store:       sessionStore,
		Quotes:      commerceClient,
		Submitter:   commerceClient,
		Addresses:   commerceClient,
		AdminFeeIDR: cfg.Payment.AdminFeeIDR,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pollMetrics := metrics.NewPaymentPollMetrics(registry)

	paymentManager, err := payment.NewManager(payment.ManagerParams{
		Logger:   logg,
		Statuses: commerceClient,
		Metrics:  pollMetrics,
		Interval: cfg.Payment.PollInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment manager", err)
		os.Exit(1)
	}
	defer paymentManager.Close()

	paymentBridge, err := payment.NewBridge(payment.BridgeParams{
		Logger:  logg,
		Gateway: commerceClient,
		Payment: cfg.Payment,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment bridge", err)
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
	logg.Info(ctx, "starting checkout server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			Checkout:    checkoutService,
			Payments:    paymentManager,
			Bridge:      paymentBridge,
			Commerce:    commerceClient,
			Registry:    registry,
			RedisPinger: redisPinger,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "checkout server stopped unexpectedly", err)
		os.Exit(1)
	}
}

type routesPinger interface {
	Ping(ctx context.Context) error
}
