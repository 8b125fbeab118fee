package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/repository"
)

type prefixHasher struct{}

func (prefixHasher) HashPassword(password string) (string, error) { return "hashed:" + password, nil }

func TestSeedTenant(t *testing.T) {
	ctx := context.Background()
	input := seedInput{
		TenantName: " Masjid Al-Noor ",
		TenantSlug: "Al-Noor",
		Locale:     "en",
		Email:      "Admin@AlNoor.org",
		Password:   "s3cret-pass",
		FullName:   "Hafsa Ali",
		Role:       domain.RoleAdmin,
	}

	t.Run("Creates tenant and admin", func(t *testing.T) {
		tenants := new(mocks.TenantRepository)
		users := new(mocks.UserRepository)
		repos := &repository.Repositories{Tenant: tenants, User: users}

		tenants.On("Create", ctx, mock.MatchedBy(func(tn *domain.Tenant) bool {
			return tn.Name == "Masjid Al-Noor" && tn.Slug == "al-noor"
		})).Return(nil).Once()
		users.On("ExistsByEmail", ctx, "admin@alnoor.org").Return(false, nil).Once()
		users.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.PasswordHash == "hashed:s3cret-pass" && u.Role == domain.RoleAdmin && u.IsActive
		})).Return(nil).Once()

		tenant, user, err := seedTenant(ctx, repos, prefixHasher{}, input)

		require.NoError(t, err)
		assert.Equal(t, tenant.ID, user.TenantID)
		users.AssertExpectations(t)
	})

	t.Run("Existing admin is kept", func(t *testing.T) {
		tenants := new(mocks.TenantRepository)
		users := new(mocks.UserRepository)
		repos := &repository.Repositories{Tenant: tenants, User: users}

		tenants.On("Create", ctx, mock.Anything).Return(nil).Once()
		users.On("ExistsByEmail", ctx, "admin@alnoor.org").Return(true, nil).Once()

		_, _, err := seedTenant(ctx, repos, prefixHasher{}, input)

		require.NoError(t, err)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
