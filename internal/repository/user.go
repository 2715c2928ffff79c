package repository

import (
	"context"

	"personal-calendar/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	// Create inserts user and fills in its ID and CreatedAt.
	// Unique violations surface as ErrDuplicateEmail or ErrDuplicatePhone.
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
}
