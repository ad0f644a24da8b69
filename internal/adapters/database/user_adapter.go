package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/spottica/backend/pkg/errors"
)

var userColumns = []interface{}{
	"id", "name", "email", "password_hash", "role", "created_at", "updated_at",
}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new user. Emails are stored lowercased.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = entities.RoleUser
	}

	query, args, err := a.db.Insert("users").Rows(goqu.Record{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("email is already registered")
		}
		return apperrors.NewInternalError("failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return a.getOne(ctx, goqu.Func("lower", goqu.C("email")).Eq(normalized), "user not found")
}

func (a *UserAdapter) getOne(ctx context.Context, where exp.Expression, notFound string) (*entities.User, error) {
	query, args, err := a.db.From("users").Select(userColumns...).Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user := &entities.User{}
	err = a.client.DB().GetContext(ctx, user, query, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return user, nil
}

// GetByIDs retrieves multiple users by their IDs
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	query, args, err := a.db.From("users").Select(userColumns...).Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	users := []*entities.User{}
	if err := a.client.DB().SelectContext(ctx, &users, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get users by ids", err)
	}

	return users, nil
}

// UpdatePassword replaces the stored password hash
func (a *UserAdapter) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return a.update(ctx, id, goqu.Record{"password_hash": passwordHash})
}

// SetRole changes the user's role
func (a *UserAdapter) SetRole(ctx context.Context, id string, role entities.Role) error {
	return a.update(ctx, id, goqu.Record{"role": string(role)})
}

func (a *UserAdapter) update(ctx context.Context, id string, record goqu.Record) error {
	record["updated_at"] = time.Now().UTC()

	query, args, err := a.db.Update("users").Set(record).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if isInvalidID(err) {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to update user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}

	return nil
}
