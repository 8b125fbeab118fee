package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/repository"
)

var (
	errInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	errInvalidToken       = fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)
)

type Service interface {
	Login(ctx context.Context, input domain.LoginInput) (*domain.User, *domain.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	// ExchangeMagicLink trades a portal token for a short-lived applicant
	// access token scoped to that one case.
	ExchangeMagicLink(ctx context.Context, token string) (*domain.Applicant, *domain.TokenPair, error)
	ValidateAccessToken(token string) (*Claims, error)
	HashPassword(password string) (string, error)
}

type Claims struct {
	UserID      uuid.UUID   `json:"user_id"`
	Role        domain.Role `json:"role"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	ApplicantID *uuid.UUID  `json:"applicant_id,omitempty"`
	Name        string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the request identity the claims describe.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{
		UserID:      c.UserID,
		Role:        c.Role,
		TenantID:    c.TenantID,
		Name:        c.Name,
		ApplicantID: c.ApplicantID,
	}
}

type service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	applicantRepo repository.ApplicantRepository
	cfg           *config.Config
	now           func() time.Time
}

func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, applicantRepo repository.ApplicantRepository, cfg *config.Config) Service {
	return &service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		applicantRepo: applicantRepo,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *service) Login(ctx context.Context, input domain.LoginInput) (*domain.User, *domain.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, errInvalidCredentials
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.TouchLogin(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, errInvalidToken
	}

	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return nil, err
	}

	return s.generateTokenPair(ctx, user)
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.sessionRepo.Revoke(ctx, session.ID)
}

func (s *service) ExchangeMagicLink(ctx context.Context, token string) (*domain.Applicant, *domain.TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, fmt.Errorf("%w: token is required", domain.ErrValidation)
	}

	applicant, err := s.applicantRepo.GetByMagicTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, nil, err
	}
	if applicant == nil || applicant.MagicTokenExpiresAt == nil || s.now().After(*applicant.MagicTokenExpiresAt) {
		return nil, nil, errInvalidToken
	}

	applicantID := applicant.ID
	access, err := s.sign(&Claims{
		UserID:      applicant.ID,
		Role:        domain.RoleApplicant,
		TenantID:    applicant.TenantID,
		ApplicantID: &applicantID,
		Name:        applicant.FullName(),
	})
	if err != nil {
		return nil, nil, err
	}

	return applicant, &domain.TokenPair{
		AccessToken: access,
		ExpiresIn:   int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.IsValid() {
		return nil, errInvalidToken
	}
	if claims.Role == domain.RoleApplicant && claims.ApplicantID == nil {
		return nil, errInvalidToken
	}

	return claims, nil
}

func (s *service) HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *service) sign(claims *Claims) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTAccessExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		Subject:   claims.UserID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *service) generateTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	access, err := s.sign(&Claims{
		UserID:   user.ID,
		Role:     user.Role,
		TenantID: user.TenantID,
		Name:     user.FullName,
	})
	if err != nil {
		return nil, err
	}

	refreshRaw, refreshHash, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshRaw,
		ExpiresIn:    int64(s.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

// NewOpaqueToken returns 32 random bytes hex encoded, and the sha256 of that
// string. Only the hash is ever stored.
func NewOpaqueToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, HashToken(raw), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
