package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO users (name, email, password_hash, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, repository.NullableString(user.Phone), user.CreatedAt.UTC()).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "phone") {
				return repository.ErrDuplicatePhone
			}
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query :=
		`SELECT ` + repository.UserColumns + ` FROM users
		 WHERE email = $1`

	user, err := repository.ScanUser(r.db.QueryRowContext(ctx, query, email))
	return user, wrap(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query :=
		`SELECT ` + repository.UserColumns + ` FROM users
		 WHERE id = $1`

	user, err := repository.ScanUser(r.db.QueryRowContext(ctx, query, id))
	return user, wrap(err)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE phone = $1)`, phone)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

// wrap leaves ErrNotFound intact and tags everything else as a db error.
func wrap(err error) error {
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("db error: %w", err)
}
