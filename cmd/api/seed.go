package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
	"rahmah-exchange/internal/service/auth"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Create an organization and its first admin user",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "tenant-name", Required: true, Usage: "Organization display name"},
		&cli.StringFlag{Name: "tenant-slug", Required: true, Usage: "Unique organization slug"},
		&cli.StringFlag{Name: "locale", Value: "en", Usage: "Organization email locale"},
		&cli.StringFlag{Name: "admin-email", Required: true},
		&cli.StringFlag{Name: "admin-password", Required: true, EnvVars: []string{"SEED_ADMIN_PASSWORD"}},
		&cli.StringFlag{Name: "admin-name", Value: "Administrator"},
		&cli.BoolFlag{Name: "super-admin", Usage: "Create the user as super_admin instead of admin"},
	},
	Action: func(cCtx *cli.Context) error {
		cfg, logger, err := bootstrap("rahmah-seed", false)
		if err != nil {
			return err
		}

		db, err := config.NewPostgresDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos := repository.NewRepositories(db)
		hasher := auth.NewService(repos.User, repos.Session, repos.Applicant, cfg)

		role := domain.RoleAdmin
		if cCtx.Bool("super-admin") {
			role = domain.RoleSuperAdmin
		}

		tenant, user, err := seedTenant(cCtx.Context, repos, hasher, seedInput{
			TenantName: cCtx.String("tenant-name"),
			TenantSlug: cCtx.String("tenant-slug"),
			Locale:     cCtx.String("locale"),
			Email:      cCtx.String("admin-email"),
			Password:   cCtx.String("admin-password"),
			FullName:   cCtx.String("admin-name"),
			Role:       role,
		})
		if err != nil {
			return err
		}

		logger.Info("seeded organization",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("slug", tenant.Slug),
			zap.String("admin_email", user.Email),
		)
		return nil
	},
}

type seedInput struct {
	TenantName string
	TenantSlug string
	Locale     string
	Email      string
	Password   string
	FullName   string
	Role       domain.Role
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

// seedTenant upserts the organization by slug and creates its first user. An
// existing user with the same email is left untouched.
func seedTenant(ctx context.Context, repos *repository.Repositories, hasher passwordHasher, in seedInput) (*domain.Tenant, *domain.User, error) {
	tenant := &domain.Tenant{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(in.TenantName),
		Slug:   strings.ToLower(strings.TrimSpace(in.TenantSlug)),
		Locale: in.Locale,
	}
	if err := repos.Tenant.Create(ctx, tenant); err != nil {
		return nil, nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := repos.User.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return tenant, &domain.User{Email: email}, nil
	}

	hash, err := hasher.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := repos.User.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create admin user: %w", err)
	}
	return tenant, user, nil
}
