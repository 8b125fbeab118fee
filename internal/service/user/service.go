package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

// PasswordHasher turns a plain password into its stored form.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service interface {
	Me(ctx context.Context, actor domain.Actor) (*domain.User, error)
	Create(ctx context.Context, actor domain.Actor, input domain.CreateUserInput) (*domain.User, error)
	// List returns the tenant's users. A role narrows it to active users of
	// that role.
	List(ctx context.Context, actor domain.Actor, role domain.Role, params domain.PaginationParams) (domain.PaginatedResponse[domain.User], error)
	ChangeRole(ctx context.Context, actor domain.Actor, userID uuid.UUID, role domain.Role) error
	Deactivate(ctx context.Context, actor domain.Actor, userID uuid.UUID) error
}

type service struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

func NewService(userRepo repository.UserRepository, hasher PasswordHasher) Service {
	return &service{userRepo: userRepo, hasher: hasher}
}

func (s *service) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: applicants have no user profile", domain.ErrForbidden)
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID != actor.TenantID {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, actor.UserID)
	}
	return user, nil
}

func (s *service) Create(ctx context.Context, actor domain.Actor, input domain.CreateUserInput) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins may create users", domain.ErrForbidden)
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if input.FullName == "" {
		return nil, fmt.Errorf("%w: fullName is required", domain.ErrValidation)
	}
	if err := assignable(input.Role); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already in use", domain.ErrConflict)
	}

	hash, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already in use", domain.ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, role domain.Role, params domain.PaginationParams) (domain.PaginatedResponse[domain.User], error) {
	if !actor.IsStaff() {
		return domain.PaginatedResponse[domain.User]{}, fmt.Errorf("%w: staff only", domain.ErrForbidden)
	}
	params.Validate()

	if role != "" {
		if !role.IsStaff() {
			return domain.PaginatedResponse[domain.User]{}, fmt.Errorf("%w: invalid role %q", domain.ErrValidation, role)
		}
		users, err := s.userRepo.ListActiveByRole(ctx, actor.TenantID, role)
		if err != nil {
			return domain.PaginatedResponse[domain.User]{}, err
		}
		return domain.NewPaginatedResponse(users, 1, max(len(users), 1), int64(len(users))), nil
	}

	users, total, err := s.userRepo.List(ctx, actor.TenantID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.User]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}

func (s *service) ChangeRole(ctx context.Context, actor domain.Actor, userID uuid.UUID, role domain.Role) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins may change roles", domain.ErrForbidden)
	}
	if userID == actor.UserID {
		return fmt.Errorf("%w: cannot change your own role", domain.ErrForbidden)
	}
	if err := assignable(role); err != nil {
		return err
	}
	if _, err := s.sameTenant(ctx, actor, userID); err != nil {
		return err
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

func (s *service) Deactivate(ctx context.Context, actor domain.Actor, userID uuid.UUID) error {
	if actor.Role != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins may deactivate users", domain.ErrForbidden)
	}
	if userID == actor.UserID {
		return fmt.Errorf("%w: cannot deactivate yourself", domain.ErrForbidden)
	}
	if _, err := s.sameTenant(ctx, actor, userID); err != nil {
		return err
	}
	return s.userRepo.Deactivate(ctx, actor.TenantID, userID)
}

func (s *service) sameTenant(ctx context.Context, actor domain.Actor, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID != actor.TenantID {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	return user, nil
}

// assignable reports whether an admin may hand out role. super_admin is
// only created by the seed command.
func assignable(role domain.Role) error {
	if !role.IsStaff() || role == domain.RoleSuperAdmin {
		return fmt.Errorf("%w: invalid role %q", domain.ErrValidation, role)
	}
	return nil
}
