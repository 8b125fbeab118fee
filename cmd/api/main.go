package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:   "rahmah",
		Usage:  "Zakat case management API",
		Action: serve,
		Commands: []*cli.Command{
			serveCommand,
			workerCommand,
			migrateCommand,
			migrateLegacyGrantsCommand,
			seedCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("rahmah: %v", err)
	}
}

// bootstrap loads config and builds the logger every command shares. strict
// also requires the settings the HTTP server needs.
func bootstrap(serviceName string, strict bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if strict {
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}
