package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/handler"
	"rahmah-exchange/internal/middleware"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service"
	"rahmah-exchange/internal/service/email"
	"rahmah-exchange/internal/service/notification"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP API and the in-process outbox worker",
	Action: serve,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-worker",
			Usage: "Do not run the outbox worker in this process",
		},
	},
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := bootstrap("rahmah-api", true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer rdb.Close()

	minioClient, err := config.NewMinIOClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(repos, rdb, minioClient, cfg, logger)
	if err != nil {
		return err
	}
	handlers := handler.NewHandlers(services)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.NewErrorHandler(cfg, logger),
		BodyLimit:    int(cfg.MaxUploadBytes) * 4,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(middleware.RequestInfo())

	handler.SetupRoutes(app, handlers, services.Auth)

	workerDone := make(chan struct{})
	if cCtx.Bool("no-worker") {
		close(workerDone)
	} else {
		worker := notification.NewWorker(services.Outbox, email.NewSender(cfg), cfg.OutboxMaxAttempts, logger)
		go func() {
			defer close(workerDone)
			if err := worker.Run(ctx); err != nil {
				logger.Error("outbox worker stopped", zap.Error(err))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		serverErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	<-workerDone
	return nil
}
