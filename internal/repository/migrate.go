package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every embedded migration in file-name order. The
// statements are idempotent so the command can run on every deploy.
func Migrate(ctx context.Context, db *sqlx.DB) ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return nil, fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return names, nil
}

// LegacyGrantMigration reports what MigrateLegacyGrants changed.
type LegacyGrantMigration struct {
	AmountsCopied int64
	RemarksCopied int64
	ColumnsFound  []string
}

// MigrateLegacyGrants folds the old amount_granted and notes columns into
// granted_amount and remarks, then drops the old columns. Canonical values
// already present are kept.
func MigrateLegacyGrants(ctx context.Context, db *sqlx.DB) (*LegacyGrantMigration, error) {
	result := &LegacyGrantMigration{}

	var columns []string
	err := db.SelectContext(ctx, &columns, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = 'grants' AND column_name IN ('amount_granted', 'notes')
		ORDER BY column_name`)
	if err != nil {
		return nil, err
	}
	result.ColumnsFound = columns
	if len(columns) == 0 {
		return result, nil
	}

	err = NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, db)
		if _, err := q.ExecContext(ctx, `
			ALTER TABLE grants
				ADD COLUMN IF NOT EXISTS granted_amount NUMERIC(12, 2),
				ADD COLUMN IF NOT EXISTS remarks TEXT`); err != nil {
			return fmt.Errorf("ensure canonical columns: %w", err)
		}

		for _, col := range columns {
			var stmt string
			switch col {
			case "amount_granted":
				stmt = `UPDATE grants SET granted_amount = amount_granted WHERE granted_amount IS NULL AND amount_granted IS NOT NULL`
			case "notes":
				stmt = `UPDATE grants SET remarks = notes WHERE remarks IS NULL AND notes IS NOT NULL`
			}

			res, err := q.ExecContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("copy %s: %w", col, err)
			}
			n, _ := res.RowsAffected()
			if col == "amount_granted" {
				result.AmountsCopied = n
			} else {
				result.RemarksCopied = n
			}

			if _, err := q.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE grants DROP COLUMN %s`, col)); err != nil {
				return fmt.Errorf("drop %s: %w", col, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
