package main

import (
	"errors"
	"os"
	"time"

	"atlas/internal/amqp"
	"atlas/internal/cli"
	"atlas/internal/config"
	"atlas/internal/log"
	"atlas/internal/seed"
	"atlas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentSeed, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, seeded rows stay pending until the worker sweep", log.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
		}
	}

	res, err := seed.Run(ctx,
		services.NewUserService(repo),
		services.NewOrderService(repo, publisher, nil),
		time.Now())
	switch {
	case errors.Is(err, seed.ErrNotEmpty):
		logger.Info("Database already contains data, skipping seed")
	case err != nil:
		logger.Error("Failed to seed database", log.FieldError, err.Error(), "users", res.Users, "orders", res.Orders)
		os.Exit(1)
	default:
		logger.Info("Seeded database", "users", res.Users, "orders", res.Orders)
	}
}
