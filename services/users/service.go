package users

import (
	"context"
	"errors"
	"strings"

	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordHashingFailed = apperrors.New(apperrors.KindInternal, "failed to hash password")
	ErrInvalidCredentials    = apperrors.New(apperrors.KindUnauthorized, "Invalid credentials")
	ErrMissingCredentials    = apperrors.Validation("Username and password required")
	ErrUserNotFound          = apperrors.NotFound("user not found")
)

type Service struct {
	gateway *database.Gateway
	config  *config.AdminConfig
	logger  *logging.Service
}

func NewService(gateway *database.Gateway, cfg *config.AdminConfig, logger *logging.Service) *Service {
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		gateway: gateway,
		config:  cfg,
		logger:  logger,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	s.logger.Debug("generating password hash", zap.Int("bcrypt_cost", s.config.BcryptCost))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// EnsureAdminUser creates the configured administrator account when it
// does not exist yet. An existing account is left untouched, password
// included.
func (s *Service) EnsureAdminUser(ctx context.Context) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn("ADMIN_USER or ADMIN_PASS not set, no admin account created")
		return nil
	}

	_, err := s.FindByUsername(ctx, s.config.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if _, err := s.Create(ctx, s.config.Username, s.config.Password, RoleAdmin); err != nil {
		return err
	}
	s.logger.Info("admin user created", zap.String("username", s.config.Username))
	return nil
}

func (s *Service) Create(ctx context.Context, username, password string, role Role) (*User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{Username: username, PasswordHash: hash, Role: role}
	if err := s.gateway.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Warn("login attempt for unknown user", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("password verification failed", zap.String("username", username))
		return nil, err
	}

	s.logger.Info("user authenticated", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *Service) FindByID(ctx context.Context, id uint) (*User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Service) findOne(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	if err := s.gateway.QueryOne(ctx, &user, database.Query{Where: where, Args: []any{arg}}); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
