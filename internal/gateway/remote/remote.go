// Package remote implements the identity gateway over the TruthCapture
// identity service HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway"
	"github.com/aoinoikaz/TruthCapture/pkg/httpclient"
)

const serviceName = "identity"

// TokenStore persists the session token between runs so the session can be
// restored without signing in again.
type TokenStore interface {
	Load() string
	Save(token string)
	Clear()
}

// MemoryTokenStore keeps the token in memory only; the session lasts until
// the process exits.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryTokenStore) Save(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Gateway talks to the identity service. Auth requests are never retried:
// replaying a sign-in or a code consumption would change semantics, so the
// underlying client is built with retries disabled and only the circuit
// breaker sits between the caller and the wire.
type Gateway struct {
	baseURL string
	client  *httpclient.CircuitBreakerClient
	tokens  TokenStore
	logger  *slog.Logger

	mu        sync.Mutex
	current   *domain.Identity
	listeners map[int]gateway.Listener
	nextID    int
}

// New creates a remote gateway against baseURL. tokens may be nil, in which
// case an in-memory store is used.
func New(baseURL string, tokens TokenStore, logger *slog.Logger) *Gateway {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0

	cbCfg := httpclient.DefaultCircuitBreakerConfig(serviceName)
	client := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), cbCfg, logger)

	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}

	return &Gateway{
		baseURL:   baseURL,
		client:    client,
		tokens:    tokens,
		logger:    logger,
		listeners: make(map[int]gateway.Listener),
	}
}

// Restore re-establishes the session from a persisted token, if any. A dead
// token is discarded silently; the client simply starts signed out.
func (g *Gateway) Restore(ctx context.Context) {
	if g.tokens.Load() == "" {
		g.setCurrent(nil)
		return
	}
	if err := g.Refresh(ctx); err != nil {
		g.logger.DebugContext(ctx, "session restore failed",
			slog.String("error", err.Error()),
		)
		g.tokens.Clear()
		g.setCurrent(nil)
	}
}

// --- IdentityGateway implementation ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	User  *userData `json:"user"`
	Token string    `json:"token"`
}

type userData struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`
}

func (u *userData) identity() *domain.Identity {
	return &domain.Identity{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
	}
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	return g.establishSession(ctx, "/api/v1/auth/signin", email, password)
}

func (g *Gateway) CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error) {
	return g.establishSession(ctx, "/api/v1/auth/signup", email, password)
}

func (g *Gateway) establishSession(ctx context.Context, path, email, password string) (*domain.Identity, error) {
	var data sessionData
	err := g.call(ctx, http.MethodPost, path, credentialsRequest{Email: email, Password: password}, false, &data)
	if err != nil {
		return nil, err
	}
	if data.User == nil || data.Token == "" {
		return nil, fmt.Errorf("identity service returned an incomplete session")
	}

	g.tokens.Save(data.Token)
	identity := data.User.identity()
	g.setCurrent(identity)
	return identity, nil
}

func (g *Gateway) UpdateDisplayName(ctx context.Context, displayName string) error {
	if g.tokens.Load() == "" {
		return gateway.ErrNotSignedIn
	}

	body := struct {
		DisplayName string `json:"display_name"`
	}{DisplayName: displayName}

	var user userData
	if err := g.call(ctx, http.MethodPut, "/api/v1/users/me", body, true, &user); err != nil {
		return err
	}

	g.setCurrent(user.identity())
	return nil
}

func (g *Gateway) SendVerificationEmail(ctx context.Context) error {
	if g.tokens.Load() == "" {
		return gateway.ErrNotSignedIn
	}
	return g.call(ctx, http.MethodPost, "/api/v1/users/me/send-verification", struct{}{}, true, nil)
}

func (g *Gateway) ConfirmVerification(ctx context.Context, code string) error {
	body := struct {
		OOBCode string `json:"oob_code"`
	}{OOBCode: code}
	return g.call(ctx, http.MethodPost, "/api/v1/auth/action/verify-email", body, false, nil)
}

func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return g.call(ctx, http.MethodPost, "/api/v1/auth/forgot-password", body, false, nil)
}

func (g *Gateway) VerifyResetCode(ctx context.Context, code string) (string, error) {
	body := struct {
		OOBCode string `json:"oob_code"`
	}{OOBCode: code}

	var data struct {
		Email string `json:"email"`
	}
	if err := g.call(ctx, http.MethodPost, "/api/v1/auth/action/verify-reset", body, false, &data); err != nil {
		return "", err
	}
	return data.Email, nil
}

func (g *Gateway) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	body := struct {
		OOBCode     string `json:"oob_code"`
		NewPassword string `json:"new_password"`
	}{OOBCode: code, NewPassword: newPassword}
	return g.call(ctx, http.MethodPost, "/api/v1/auth/action/reset-password", body, false, nil)
}

func (g *Gateway) SignOut(ctx context.Context) error {
	token := g.tokens.Load()
	if token == "" {
		return nil
	}

	err := g.call(ctx, http.MethodPost, "/api/v1/auth/signout", struct{}{}, true, nil)

	// The session is gone locally regardless of what the server said.
	g.tokens.Clear()
	g.setCurrent(nil)

	if err != nil {
		g.logger.WarnContext(ctx, "server-side sign out failed",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (g *Gateway) Refresh(ctx context.Context) error {
	if g.tokens.Load() == "" {
		return gateway.ErrNotSignedIn
	}

	var user userData
	if err := g.call(ctx, http.MethodGet, "/api/v1/users/me", nil, true, &user); err != nil {
		return err
	}

	g.setCurrent(user.identity())
	return nil
}

func (g *Gateway) Subscribe(listener gateway.Listener) gateway.UnsubscribeFunc {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = listener
	current := cloneIdentity(g.current)
	g.mu.Unlock()

	listener(current)

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// --- Internals ---

// call performs a request against the identity service and decodes the data
// envelope into out when out is non-nil.
func (g *Gateway) call(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+g.tokens.Load())
	}

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return mapTransportError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return mapResponseError(httpclient.ParseResponseError(resp, serviceName))
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (g *Gateway) setCurrent(identity *domain.Identity) {
	g.mu.Lock()
	g.current = identity
	listeners := make([]gateway.Listener, 0, len(g.listeners))
	for _, l := range g.listeners {
		listeners = append(listeners, l)
	}
	g.mu.Unlock()

	for _, l := range listeners {
		l(cloneIdentity(identity))
	}
}

func cloneIdentity(identity *domain.Identity) *domain.Identity {
	if identity == nil {
		return nil
	}
	clone := *identity
	return &clone
}
