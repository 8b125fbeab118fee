package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/repository"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the embedded database schema",
	Action: func(cCtx *cli.Context) error {
		cfg, logger, err := bootstrap("rahmah-migrate", false)
		if err != nil {
			return err
		}

		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		applied, err := repository.Migrate(cCtx.Context, db)
		if err != nil {
			return err
		}

		logger.Info("schema applied", zap.Strings("files", applied))
		return nil
	},
}

var migrateLegacyGrantsCommand = &cli.Command{
	Name:  "migrate-legacy-grants",
	Usage: "Copy legacy grant columns into the canonical ones and drop them",
	Action: func(cCtx *cli.Context) error {
		cfg, logger, err := bootstrap("rahmah-migrate", false)
		if err != nil {
			return err
		}

		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		result, err := repository.MigrateLegacyGrants(cCtx.Context, db)
		if err != nil {
			return err
		}

		if len(result.ColumnsFound) == 0 {
			logger.Info("no legacy grant columns found")
			return nil
		}
		logger.Info("legacy grant columns migrated",
			zap.Strings("columns", result.ColumnsFound),
			zap.Int64("amounts_copied", result.AmountsCopied),
			zap.Int64("remarks_copied", result.RemarksCopied),
		)
		return nil
	},
}
