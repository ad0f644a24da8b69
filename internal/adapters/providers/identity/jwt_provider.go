package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	apperrors "github.com/spottica/backend/pkg/errors"
)

const (
	purposeAccess = "access"
	purposeReset  = "reset"
)

// Claims are the JWT claims carried by access and reset tokens
type Claims struct {
	Role    string `json:"role,omitempty"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTProvider implements TokenProvider with HS256-signed JWTs
type JWTProvider struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTProvider creates a token provider signing with secret
func NewJWTProvider(secret string, accessTTL time.Duration) providers.TokenProvider {
	return &JWTProvider{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// IssueAccessToken returns a signed access token for the user
func (p *JWTProvider) IssueAccessToken(user *entities.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", apperrors.NewValidationError("user is required")
	}
	return p.sign(Claims{
		Role:    string(user.Role),
		Name:    user.Name,
		Purpose: purposeAccess,
	}, user.ID, p.accessTTL)
}

// VerifyAccessToken validates an access token and returns the caller it identifies
func (p *JWTProvider) VerifyAccessToken(token string) (*entities.Identity, error) {
	claims, err := p.parse(token, purposeAccess)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}

	role := entities.Role(claims.Role)
	if role != entities.RoleAdmin {
		role = entities.RoleUser
	}
	return &entities.Identity{UserID: claims.Subject, Role: role, Name: claims.Name}, nil
}

// IssueResetToken returns a short-lived password reset token for the user
func (p *JWTProvider) IssueResetToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", apperrors.NewValidationError("user id is required")
	}
	return p.sign(Claims{Purpose: purposeReset}, userID, ttl)
}

// VerifyResetToken validates a reset token and returns the user ID it was issued for
func (p *JWTProvider) VerifyResetToken(token string) (string, error) {
	claims, err := p.parse(token, purposeReset)
	if err != nil {
		return "", apperrors.NewValidationError("invalid or expired token")
	}
	return claims.Subject, nil
}

func (p *JWTProvider) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := p.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", apperrors.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

func (p *JWTProvider) parse(token, purpose string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
