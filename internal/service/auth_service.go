package service

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gig-service/internal/auth"
	"github.com/spec-kit/gig-service/internal/config"
	"github.com/spec-kit/gig-service/internal/domain"
	"github.com/spec-kit/gig-service/internal/repository"
	apperrors "github.com/spec-kit/gig-service/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// RegisterInput describes a new account.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
	Role        domain.Role
	Skills      []string
	Bio         string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register creates an account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, domain.Token, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.DisplayName)
	switch {
	case name == "":
		return nil, domain.Token{}, apperrors.NewValidationError("displayName", "display name is required")
	case !validEmail(email):
		return nil, domain.Token{}, apperrors.NewValidationError("email", "a valid email is required")
	case len(input.Password) < minPasswordLength:
		return nil, domain.Token{}, apperrors.NewValidationError("password", "password must be at least 8 characters")
	case !input.Role.Valid():
		return nil, domain.Token{}, apperrors.NewValidationError("role", "role must be seeker or poster")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.Token{}, err
	}

	user := &domain.User{
		DisplayName:  name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Skills:       NormalizeSkills(input.Skills),
		Bio:          strings.TrimSpace(input.Bio),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Token{}, &apperrors.DomainError{
				Code:       apperrors.CodeValidation,
				Message:    "email already registered",
				HTTPStatus: http.StatusConflict,
				Field:      "email",
			}
		}
		return nil, domain.Token{}, apperrors.NewStoreError(err)
	}

	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, domain.Token{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, domain.Token{}, apperrors.NewStoreError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, domain.Token{}, err
	}
	return user, token, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
