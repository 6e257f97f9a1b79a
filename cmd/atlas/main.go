package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"atlas/internal/ai"
	"atlas/internal/ai/gemini"
	"atlas/internal/amqp"
	"atlas/internal/backend"
	"atlas/internal/cache"
	"atlas/internal/cli"
	"atlas/internal/config"
	"atlas/internal/core"
	apphttp "atlas/internal/http"
	"atlas/internal/log"
	"atlas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	store := result.Backend

	// A nil publisher disables mirroring; writes still succeed locally.
	var publisher services.SyncPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, spreadsheet mirroring disabled", log.FieldError, err.Error())
		} else {
			publisher = amqpClient
		}
	}

	var summarizer ai.Summarizer
	if cfg.SummariesEnabled() {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithLogger(logger.WithComponent(log.ComponentSummary).Logger))
		if err != nil {
			logger.Warn("Summary client unavailable", log.FieldError, err.Error())
		} else {
			summarizer = client
		}
	}

	overviewCache := cache.NewLRUCache[core.Overview](8, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentDashboard).Logger)
	cacheManager.Register(overviewCache)
	cacheManager.StartCleanup(time.Minute)

	dashboard := services.NewDashboardService(store, store, overviewCache, summarizer)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Orders:             services.NewOrderService(store, publisher, dashboard),
		Capital:            services.NewCapitalService(store, publisher, dashboard),
		Users:              services.NewUserService(store),
		Dashboard:          dashboard,
		Ready:              store.Ping,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	go func() {
		<-ctx.Done()
		cli.RunCleanup(logger, 30*time.Second,
			srv.Shutdown,
			func(context.Context) error { cacheManager.Stop(); return nil },
			func(context.Context) error {
				if amqpClient == nil {
					return nil
				}
				return amqpClient.Close()
			},
			func(context.Context) error {
				if result.Cleanup == nil {
					return nil
				}
				return result.Cleanup()
			},
		)
	}()

	logger.Info("Starting atlas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"mirroring", publisher != nil,
		"summaries", summarizer != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
