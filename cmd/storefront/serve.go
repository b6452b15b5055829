package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/catalog"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/favorites"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer logging.Sync()
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	logger := logging.New("storefront-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	cat, err := catalog.Load()
	if err != nil {
		return err
	}

	var (
		orderRepo repository.OrderRepository = repository.NewMemoryOrderRepository()
		favStore  favorites.Store            = favorites.NewMemory()
		cartCache repository.CartCache
		checks    = map[string]handlers.ReadinessCheck{}
	)

	if cfg.Features.PersistentStore {
		db, err := repository.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", logging.Fields{"error": err.Error()})
			return err
		}
		defer db.Close()

		logger.Info("Database connected", logging.Fields{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})

		if cfg.Features.MigrateOnBoot {
			if err := repository.RunMigrations(db); err != nil {
				return err
			}
		}

		orderRepo = repository.NewPostgresOrderRepository(db, logging.New("order-repository"))
		favStore = repository.NewPostgresFavoriteRepository(db, logging.New("favorite-repository"))
		checks["postgres"] = db.PingContext
	}

	if cfg.Features.CartCache {
		client := repository.NewRedisClient(cfg.Redis)
		defer client.Close()

		cache := repository.NewRedisCartCache(client, cfg.Redis.CartTTL, logging.New("cart-cache"))
		cartCache = cache
		checks["redis"] = cache.Ping
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Features.Events {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, m, logging.New("event-publisher"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	gateway := clients.NewHTTPPaymentGateway(cfg.PaymentGateway, m, logging.New("payment-gateway"))
	authClient := clients.NewHTTPAuthClient(cfg.AuthService, logging.New("auth-client"))

	cartService := service.NewCartService(cat, cartCache, m, logging.New("cart-service"))
	orderService := service.NewOrderService(orderRepo, gateway, publisher, logging.New("order-service"))
	checkoutService := service.NewCheckoutService(
		checkout.NewOrchestrator(gateway, logging.New("checkout")),
		cartService,
		orderRepo,
		publisher,
		m,
		logging.New("checkout-service"),
	)

	h := handlers.NewHandlers(
		cat,
		service.NewAuthService(authClient, logging.New("auth-service")),
		cartService,
		service.NewFavoriteService(favStore, cat, logging.New("favorite-service")),
		checkoutService,
		orderService,
		logging.New("handlers"),
	)
	for name, check := range checks {
		h.AddReadinessCheck(name, check)
	}

	srv := server.New(h, m, cfg, logging.New("server"))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":             cfg.Server.Port,
			"persistent_store": cfg.Features.PersistentStore,
			"cart_cache":       cfg.Features.CartCache,
			"events":           cfg.Features.Events,
		})
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Features.Events {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderService, logging.New("event-consumer"))
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("Server failed", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
		return err
	}

	logger.Info("Server exited")
	return nil
}
