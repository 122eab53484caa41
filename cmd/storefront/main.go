package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{Service: "storefront"}).Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Options{
		Service:    "storefront",
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint: cfg.OTLPEndpoint,
		Service:  "storefront",
		Insecure: !cfg.IsProduction(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}

	// Base HTTP client (shared)
	sharedHTTP := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	catalogBase, err := clients.NewClient("catalog-service", cfg.CatalogURL, sharedHTTP)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog client")
	}

	svcOpts := []catalog.Option{catalog.WithLogger(log)}
	if cfg.RedisURL != "" {
		rdb, err := cache.Config{URL: cfg.RedisURL, DialTimeout: 5 * time.Second}.New(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()
		svcOpts = append(svcOpts, catalog.WithCache(cache.NewProductCache(rdb, cfg.ProductCacheTTL)))
		log.Info().Msg("product cache enabled")
	}
	products := catalog.NewService(clients.NewCatalogClient(catalogBase), svcOpts...)

	pub := cartPublisher(cfg, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:  log,
		Cfg:     cfg,
		Catalog: products,
		Events:  pub,
		HealthProbes: []clients.HealthProbe{
			// fakestoreapi has no health endpoint; a one item page is cheap
			{Name: "catalog-service", Client: catalogBase, Path: "/products", RawQuery: "limit=1"},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if c, ok := pub.(*events.Publisher); ok {
		_ = c.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("shutdown complete")
}

// cartPublisher connects to RabbitMQ when configured. The storefront keeps
// serving without the broker.
func cartPublisher(cfg config.Config, log zerolog.Logger) events.CartPublisher {
	if cfg.RabbitMQURL == "" {
		return events.NoopPublisher{}
	}

	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, cart events disabled")
		return events.NoopPublisher{}
	}
	pub, err := events.NewPublisher(conn, events.PublisherOptions{})
	if err != nil {
		_ = conn.Close()
		log.Warn().Err(err).Msg("rabbitmq publisher unavailable, cart events disabled")
		return events.NoopPublisher{}
	}
	log.Info().Str("exchange", events.EventsExchange).Msg("publishing cart events")
	return pub
}
