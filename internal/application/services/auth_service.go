package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	"github.com/spottica/backend/internal/infrastructure/observability"
	"github.com/spottica/backend/pkg/config"
	apperrors "github.com/spottica/backend/pkg/errors"
)

const mailTimeout = 30 * time.Second

// RegisterInput is a registration request
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  entities.PublicUser `json:"user"`
	Token string              `json:"token"`
}

// AuthService handles registration, login and password recovery
type AuthService struct {
	users    repositories.UserRepository
	tokens   providers.TokenProvider
	hasher   providers.PasswordHasher
	mailer   providers.Mailer
	resetTTL time.Duration
	frontURL string
	wg       sync.WaitGroup
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repositories.UserRepository,
	tokens providers.TokenProvider,
	hasher providers.PasswordHasher,
	mailer providers.Mailer,
	authCfg config.AuthConfig,
	mailCfg config.MailConfig,
) *AuthService {
	resetTTL := authCfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		resetTTL: resetTTL,
		frontURL: strings.TrimRight(mailCfg.FrontURL, "/"),
	}
}

// Register creates a user and signs them in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email address")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         entities.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.signIn(user)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	return s.signIn(user)
}

// Authenticate verifies an access token
func (s *AuthService) Authenticate(token string) (*entities.Identity, error) {
	return s.tokens.VerifyAccessToken(token)
}

// ForgotPassword mails a reset link when the email belongs to a user. The
// outcome is not revealed to the caller and delivery happens in the background.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueResetToken(user.ID, s.resetTTL)
	if err != nil {
		return err
	}

	msg := providers.Mail{
		To:      user.Email,
		Subject: "Password recovery",
		Body:    fmt.Sprintf("Follow this link to reset your password: %s/reset-password/%s", s.frontURL, token),
	}

	logger := observability.LoggerFromContext(ctx).With().Str("user_id", user.ID).Logger()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			logger.Error().Err(err).Msg("failed to send password reset mail")
		}
	}()

	return nil
}

// ResetPassword replaces the password of the user a reset token was issued for
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return apperrors.NewValidationError("password is required")
	}

	userID, err := s.tokens.VerifyResetToken(token)
	if err != nil {
		return apperrors.NewValidationError("invalid or expired token")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return apperrors.NewNotFoundError("user not found")
		}
		return err
	}
	return nil
}

// Wait blocks until background mail deliveries finish
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) signIn(user *entities.User) (*AuthResult, error) {
	token, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token}, nil
}
