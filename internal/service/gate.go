package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aoinoikaz/TruthCapture/internal/repository"
)

// GateService guards the deployment behind a single shared access password.
// It is independent of user accounts; unlocking the gate only proves the
// visitor was given the password.
type GateService struct {
	gates        repository.GateRepository
	passwordHash string
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// NewGateService creates a gate service. passwordHash is the bcrypt hash of
// the shared access password.
func NewGateService(gates repository.GateRepository, passwordHash string, sessionTTL time.Duration, logger *slog.Logger) *GateService {
	return &GateService{
		gates:        gates,
		passwordHash: passwordHash,
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// Unlock checks the supplied password against the gate hash and, on match,
// issues an opaque gate session token.
func (s *GateService) Unlock(ctx context.Context, candidate string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(candidate)); err != nil {
		return "", ErrGateDenied
	}

	token := uuid.New().String()
	if err := s.gates.Create(ctx, token, s.sessionTTL); err != nil {
		return "", fmt.Errorf("store gate session: %w", err)
	}

	s.logger.InfoContext(ctx, "gate unlocked")
	return token, nil
}

// Validate reports whether a gate session token is still active.
func (s *GateService) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.gates.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("check gate session: %w", err)
	}
	return ok, nil
}
