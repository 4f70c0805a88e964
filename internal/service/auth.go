package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aoinoikaz/TruthCapture/internal/auth"
	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/event"
	"github.com/aoinoikaz/TruthCapture/internal/password"
	"github.com/aoinoikaz/TruthCapture/internal/repository"
	apperrors "github.com/aoinoikaz/TruthCapture/pkg/errors"
	"github.com/aoinoikaz/TruthCapture/pkg/middleware"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// AuthService implements the business logic for account and session
// operations.
type AuthService struct {
	users     repository.UserRepository
	codes     repository.ActionCodeRepository
	sessions  repository.SessionRepository
	jwt       *auth.JWTManager
	producer  *event.Producer
	verifyTTL time.Duration
	resetTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService creates a new auth service. verifyTTL and resetTTL bound
// the lifetime of emailed verification and reset codes respectively.
func NewAuthService(
	users repository.UserRepository,
	codes repository.ActionCodeRepository,
	sessions repository.SessionRepository,
	jwt *auth.JWTManager,
	producer *event.Producer,
	verifyTTL time.Duration,
	resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		codes:     codes,
		sessions:  sessions,
		jwt:       jwt,
		producer:  producer,
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

// --- Input/Output types ---

// SignUpInput holds the parameters for creating a new account.
type SignUpInput struct {
	Email    string
	Password string
}

// SignInInput holds the parameters for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the optional profile fields to change.
type UpdateProfileInput struct {
	DisplayName *string
	PhotoURL    *string
}

// Session is an issued session token together with the account it
// authenticates.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// --- Operations ---

// SignUp creates a new account, issues a session for it and queues the
// verification email. The account starts unverified; route access is
// enforced separately, so handing out the session here is safe and lets
// the caller finish profile setup before signing out.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	if !password.Evaluate(input.Password, "").Valid() {
		return nil, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return session, nil
}

// SignIn authenticates an account with email and password. Sessions are
// issued even for unverified accounts; verified-only surfaces are gated
// at the route level.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrWrongPassword
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
		slog.Bool("email_verified", user.EmailVerified),
	)

	return session, nil
}

// SignOut revokes the session identified by tokenID. Revoking an already
// revoked session is a no-op.
func (s *AuthService) SignOut(ctx context.Context, tokenID string) error {
	if err := s.sessions.Revoke(ctx, tokenID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SignOutToken revokes the session carried by a raw bearer token. Tokens
// that fail validation have no active session left to revoke, so they are
// treated as already signed out.
func (s *AuthService) SignOutToken(ctx context.Context, token string) error {
	claims, err := s.jwt.ValidateSessionToken(token)
	if err != nil {
		return nil
	}
	return s.SignOut(ctx, claims.ID)
}

// ValidateToken checks the token signature, expiry and revocation status,
// returning middleware claims for the request context.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.jwt.ValidateSessionToken(token)
	if err != nil {
		return nil, err
	}

	active, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return nil, ErrSessionRevoked
	}

	return &middleware.Claims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Role:          claims.Role,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// GetUser returns the account for the given ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the account's display name and photo URL.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for profile update: %w", err)
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.PhotoURL != nil {
		user.PhotoURL = *input.PhotoURL
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// SendVerification issues a fresh verification code for the account and
// queues the email that carries it.
func (s *AuthService) SendVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for verification: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	code, err := s.issueActionCode(ctx, user, domain.ActionVerifyEmail, s.verifyTTL)
	if err != nil {
		return err
	}

	// Mail delivery is asynchronous; a publish failure is logged rather
	// than surfaced so the account flow is not blocked on the broker.
	if err := s.producer.PublishVerificationRequested(ctx, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish verification event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// ConfirmVerification consumes a verification code and marks the account's
// email as verified. Each code works exactly once.
func (s *AuthService) ConfirmVerification(ctx context.Context, code string) (*domain.User, error) {
	ac, err := s.consumeCode(ctx, code, domain.ActionVerifyEmail)
	if err != nil {
		return nil, err
	}

	if err := s.users.MarkEmailVerified(ctx, ac.UserID); err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}

	user, err := s.users.GetByID(ctx, ac.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user after verification: %w", err)
	}

	if err := s.producer.PublishEmailVerified(ctx, user.ID, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish email verified event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// RequestPasswordReset issues a reset code for the account and queues the
// email that carries it. Unknown emails are reported to the caller; the
// client surfaces that as its own message.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	email, err := normalizeEmail(emailAddr)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user for password reset: %w", err)
	}

	code, err := s.issueActionCode(ctx, user, domain.ActionResetPassword, s.resetTTL)
	if err != nil {
		return err
	}

	if err := s.producer.PublishPasswordResetRequested(ctx, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish password reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// VerifyResetCode checks a reset code without consuming it and returns the
// email it was issued for.
func (s *AuthService) VerifyResetCode(ctx context.Context, code string) (string, error) {
	ac, err := s.codes.Peek(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", ErrExpiredActionCode
		}
		return "", fmt.Errorf("peek action code: %w", err)
	}
	if ac.Mode != domain.ActionResetPassword || ac.Expired(time.Now().UTC()) {
		return "", ErrExpiredActionCode
	}
	return ac.Email, nil
}

// ConfirmPasswordReset consumes a reset code and replaces the account's
// password. Every active session for the account is revoked.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if !password.Evaluate(newPassword, "").Valid() {
		return ErrWeakPassword
	}

	ac, err := s.consumeCode(ctx, code, domain.ActionResetPassword)
	if err != nil {
		// Reset links share one failure message, expired or consumed.
		if errors.Is(err, ErrInvalidActionCode) {
			return ErrExpiredActionCode
		}
		return err
	}

	user, err := s.users.GetByID(ctx, ac.UserID)
	if err != nil {
		return fmt.Errorf("get user for password reset: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashed)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.sessions.RevokeByUserID(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password reset",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- Helpers ---

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	token, tokenID, err := s.jwt.GenerateSessionToken(user.ID, user.Email, domain.RoleUser, user.EmailVerified)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	expiry := s.jwt.SessionExpiry()
	if err := s.sessions.Create(ctx, user.ID, tokenID, expiry); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(expiry),
		User:      user,
	}, nil
}

func (s *AuthService) issueActionCode(ctx context.Context, user *domain.User, mode domain.ActionMode, ttl time.Duration) (*domain.ActionCode, error) {
	now := time.Now().UTC()
	code := &domain.ActionCode{
		Code:      uuid.New().String(),
		Mode:      mode,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.codes.Create(ctx, code, ttl); err != nil {
		return nil, fmt.Errorf("store action code: %w", err)
	}
	return code, nil
}

func (s *AuthService) consumeCode(ctx context.Context, code string, mode domain.ActionMode) (*domain.ActionCode, error) {
	ac, err := s.codes.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidActionCode
		}
		return nil, fmt.Errorf("consume action code: %w", err)
	}
	if ac.Mode != mode {
		return nil, ErrInvalidActionCode
	}
	if ac.Expired(time.Now().UTC()) {
		return nil, ErrExpiredActionCode
	}
	return ac, nil
}

// normalizeEmail lowercases and validates an email address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("malformed email address")
	}
	return email, nil
}
