package main

import (
	"context"
	"fmt"
	"github.com/one-edge/portal/internal/api"
	"github.com/one-edge/portal/internal/config"
	"github.com/one-edge/portal/internal/registry"
	"github.com/one-edge/portal/internal/site"
	"github.com/one-edge/portal/internal/storage"
	"github.com/one-edge/portal/internal/storage/cache"
	"github.com/one-edge/portal/internal/storage/inmem"
	"github.com/one-edge/portal/internal/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("config", fmt.Sprintf("%+v", cfg.Masked())).Msg("")
	if !cfg.HasRegistryTrailingSlash() {
		log.Warn().Str("base_url", cfg.SymphonyAPIBaseURL).Msg("the Symphony API base URL does not end with a slash; the registry path is appended as-is")
	}

	// Initialize the storage driver
	log.Info().Str("driver", cfg.StorageDriver).Msg("initializing storage driver...")
	driver := newStorageDriver(cfg)
	if err := driver.Initialize(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("could not initialize the storage driver")
	}
	defer driver.Close()

	// Create the metrics registry and the registry client
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	client, err := registry.NewClient(registry.Config{
		BaseURL: cfg.SymphonyAPIBaseURL,
		Timeout: cfg.RegistryTimeout,
	}, registry.WithMetrics(registry.NewMetrics(metrics)))
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the registry client")
	}

	// Start up the portal API
	log.Info().Str("portal_api", cfg.PortalAPIListenAddress).Str("registry", client.Endpoint()).Msg("starting up portal API...")
	apis := &api.Service{
		Config:  cfg,
		Storage: driver,
		Sites:   &site.Lister{Fetcher: client},
		Metrics: metrics,
	}
	apiErrs := make(chan error, 1)
	apis.Startup(apiErrs)
	defer func() {
		log.Info().Msg("shutting down the portal API...")
		apis.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	select {
	case <-shutdown:
	case err := <-apiErrs:
		log.Error().Err(err).Msg("the API service raised an unexpected error")
	}
}

func newStorageDriver(cfg *config.Config) storage.Driver {
	var driver storage.Driver
	switch cfg.StorageDriver {
	case config.StorageDriverInMemory:
		driver = inmem.New()
	default:
		driver = postgres.New(cfg.PostgresDSN)
	}
	if cfg.UserCacheLifetime > 0 {
		driver = cache.New(driver, cfg.UserCacheLifetime)
	}
	return driver
}
