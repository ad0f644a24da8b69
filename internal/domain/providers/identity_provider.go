package providers

import (
	"time"

	"github.com/spottica/backend/internal/domain/entities"
)

// TokenProvider issues and verifies opaque bearer tokens
type TokenProvider interface {
	// IssueAccessToken returns a signed access token for the user
	IssueAccessToken(user *entities.User) (string, error)

	// VerifyAccessToken validates an access token and returns the caller it identifies
	VerifyAccessToken(token string) (*entities.Identity, error)

	// IssueResetToken returns a short-lived password reset token for the user
	IssueResetToken(userID string, ttl time.Duration) (string, error)

	// VerifyResetToken validates a reset token and returns the user ID it was issued for
	VerifyResetToken(token string) (string, error)
}

// PasswordHasher hashes and checks user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
