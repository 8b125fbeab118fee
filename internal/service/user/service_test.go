package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/mocks"
	"rahmah-exchange/internal/service/user"
)

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", domain.ErrValidation
	}
	return "hashed:" + password, nil
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}

	t.Run("Admin creates staff in own tenant", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		repo.On("ExistsByEmail", ctx, "zaid@masjid.org").Return(false, nil).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.TenantID == tenantID && u.Role == domain.RoleCaseworker &&
				u.PasswordHash == "hashed:correct-horse" && u.IsActive
		})).Return(nil).Once()

		got, err := svc.Create(ctx, admin, domain.CreateUserInput{
			Email: " Zaid@Masjid.org ", Password: "correct-horse", FullName: "Zaid", Role: domain.RoleCaseworker,
		})

		require.NoError(t, err)
		assert.Equal(t, "zaid@masjid.org", got.Email)
		repo.AssertExpectations(t)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		repo.On("ExistsByEmail", ctx, "zaid@masjid.org").Return(true, nil).Once()

		_, err := svc.Create(ctx, admin, domain.CreateUserInput{Email: "zaid@masjid.org", Password: "correct-horse", FullName: "Zaid", Role: domain.RoleCaseworker})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("Rejects applicant and super admin roles", func(t *testing.T) {
		svc := user.NewService(new(mocks.UserRepository), plainHasher{})
		for _, role := range []domain.Role{domain.RoleApplicant, domain.RoleSuperAdmin, "janitor"} {
			_, err := svc.Create(ctx, admin, domain.CreateUserInput{Email: "a@b.org", Password: "correct-horse", FullName: "A", Role: role})
			assert.ErrorIs(t, err, domain.ErrValidation, role)
		}
	})

	t.Run("Non admins forbidden", func(t *testing.T) {
		svc := user.NewService(new(mocks.UserRepository), plainHasher{})
		_, err := svc.Create(ctx, domain.Actor{Role: domain.RoleTreasurer, TenantID: tenantID}, domain.CreateUserInput{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleCaseworker, TenantID: tenantID}

	t.Run("By role", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		repo.On("ListActiveByRole", ctx, tenantID, domain.RoleTreasurer).Return([]domain.User{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

		resp, err := svc.List(ctx, actor, domain.RoleTreasurer, domain.PaginationParams{})

		require.NoError(t, err)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("Paginated", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		repo.On("List", ctx, tenantID, domain.PaginationParams{Page: 1, PageSize: 20}).Return([]domain.User{}, int64(0), nil).Once()

		resp, err := svc.List(ctx, actor, "", domain.PaginationParams{})

		require.NoError(t, err)
		assert.Empty(t, resp.Data)
	})
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	admin := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin, TenantID: tenantID}

	t.Run("Deactivates tenant user", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		target := &domain.User{ID: uuid.New(), TenantID: tenantID}
		repo.On("GetByID", ctx, target.ID).Return(target, nil).Once()
		repo.On("Deactivate", ctx, tenantID, target.ID).Return(nil).Once()

		require.NoError(t, svc.Deactivate(ctx, admin, target.ID))
		repo.AssertExpectations(t)
	})

	t.Run("Cannot deactivate self", func(t *testing.T) {
		svc := user.NewService(new(mocks.UserRepository), plainHasher{})
		assert.ErrorIs(t, svc.Deactivate(ctx, admin, admin.UserID), domain.ErrForbidden)
	})

	t.Run("User of another tenant", func(t *testing.T) {
		repo := new(mocks.UserRepository)
		svc := user.NewService(repo, plainHasher{})
		target := &domain.User{ID: uuid.New(), TenantID: uuid.New()}
		repo.On("GetByID", ctx, target.ID).Return(target, nil).Once()

		assert.ErrorIs(t, svc.Deactivate(ctx, admin, target.ID), domain.ErrNotFound)
		repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything, mock.Anything)
	})
}
