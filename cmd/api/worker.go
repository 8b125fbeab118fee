package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

var workerCommand = &cli.Command{
	Name:  "worker",
	Usage: "Run only the outbox worker that delivers queued email",
	Action: func(cCtx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logger, err := bootstrap("rahmah-worker", false)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer rdb.Close()

		outbox := notification.NewRedisOutbox(rdb, cfg.OutboxStream, cfg.OutboxGroup, cfg.OutboxConsumer)
		worker := notification.NewWorker(outbox, email.NewSender(cfg), cfg.OutboxMaxAttempts, logger)
		return worker.Run(ctx)
	},
}
