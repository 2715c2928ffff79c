package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// DefaultBcryptCost is used when NewUserService is given a cost of zero.
const DefaultBcryptCost = 10

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users     repository.UserRepository
	cost      int
	dummyHash []byte
	now       func() time.Time
}

func NewUserService(users repository.UserRepository, bcryptCost int) (UserService, error) {
	if bcryptCost == 0 {
		bcryptCost = DefaultBcryptCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
	}
	// Compared against when the email is unknown so that Login costs the
	// same whether or not the account exists.
	dummy, err := bcrypt.GenerateFromPassword([]byte("calendar-login-placeholder"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	return &userService{
		users:     users,
		cost:      bcryptCost,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, invalid(ErrMissingField, "Name, email, and password are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid(ErrWeakPassword, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	var phone *string
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			phone = &p
		}
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	if phone != nil {
		exists, err := s.users.PhoneExists(ctx, *phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicatePhone
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, invalid(ErrWeakPassword, "Password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        phone,
		CreatedAt:    s.now().UTC(),
	}

	// The existence checks above can race with a concurrent registration;
	// the unique constraints settle it.
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, ErrDuplicatePhone
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid(ErrMissingField, "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(ErrNotFound, "User not found")
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}
