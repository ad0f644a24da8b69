package repositories

import (
	"context"

	"github.com/spottica/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user. A taken email fails with a conflict error.
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByIDs retrieves multiple users by their IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetRole changes the user's role
	SetRole(ctx context.Context, id string, role entities.Role) error
}
