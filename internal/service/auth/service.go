package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/model"
)

const bcryptCost = 10

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the persistence boundary the credential manager needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	users  UserStore
	logger *zap.Logger
}

func NewService(users UserStore, logger *zap.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// ValidateRegistration accumulates every violation instead of failing fast.
// The length check is skipped for an absent password, which already carries
// its own missing-field error.
func ValidateRegistration(name, email, password, password2 string) []string {
	var errs []string
	if name == "" {
		errs = append(errs, "Name is required")
	}
	if email == "" {
		errs = append(errs, "Email is required")
	}
	if password == "" {
		errs = append(errs, "Password is required")
	}
	if password2 == "" {
		errs = append(errs, "Password confirmation is required")
	}
	if password != password2 {
		errs = append(errs, "Passwords do not match")
	}
	if password != "" && len(password) < 6 {
		errs = append(errs, "Password must be at least 6 characters")
	}
	return errs
}

// Register creates a new account. The email must not already exist; the
// password is stored only as a bcrypt hash (fresh salt per call), and a
// hashing failure aborts registration.
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		s.logger.Error("Password hashing failed", zap.Error(err))
		return nil, err
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int("user_id", u.ID))
	return u, nil
}

// Authenticate checks the credentials. A missing user and a hash mismatch
// are indistinguishable to the caller; storage failures propagate as-is.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}
