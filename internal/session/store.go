// Package session holds the client-side session state: the current signed-in
// identity and the initial loading flag. The store is an injectable
// container, created and owned by the application shell; there is no package
// level singleton.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway"
)

// Route paths the client core navigates between.
const (
	PathAuth      = "/auth"
	PathDashboard = "/dashboard"
)

// NavigateFunc is invoked when the store requests a navigation, such as to
// the auth entry point after logout.
type NavigateFunc func(path string)

// Snapshot is the consumer view of the session: the current identity (nil
// when signed out) and whether the initial session resolution is still in
// flight.
type Snapshot struct {
	Identity *domain.SessionIdentity
	Loading  bool
}

// Store tracks the current session by subscribing to gateway change
// notifications. Loading starts true and flips to false exactly once, on the
// first notification, regardless of whether a session exists.
type Store struct {
	gw       gateway.IdentityGateway
	logger   *slog.Logger
	navigate NavigateFunc

	mu          sync.Mutex
	identity    *domain.SessionIdentity
	loading     bool
	resolved    bool
	unsubscribe gateway.UnsubscribeFunc
	subs        map[int]func(Snapshot)
	nextSub     int
}

// NewStore creates a session store. navigate may be nil when the embedding
// application handles navigation elsewhere.
func NewStore(gw gateway.IdentityGateway, navigate NavigateFunc, logger *slog.Logger) *Store {
	return &Store{
		gw:       gw,
		logger:   logger,
		navigate: navigate,
		loading:  true,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start subscribes to gateway session changes. The gateway delivers the
// current state immediately, so by the time Start returns the first
// resolution has happened and Loading is false.
func (s *Store) Start() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	unsub := s.gw.Subscribe(s.onChange)

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
}

// onChange handles a gateway notification. Each identity-bearing
// notification constructs a fresh SessionIdentity; the stored value is never
// mutated in place.
func (s *Store) onChange(id *domain.Identity) {
	s.mu.Lock()
	if id != nil {
		s.identity = domain.NewSessionIdentity(id)
	} else {
		s.identity = nil
	}
	if !s.resolved {
		s.resolved = true
		s.loading = false
	}
	snap := Snapshot{Identity: s.identity, Loading: s.loading}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if s.logger != nil {
		if id != nil {
			s.logger.Debug("session changed", slog.String("user_id", id.ID))
		} else {
			s.logger.Debug("session cleared")
		}
	}

	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Identity: s.identity, Loading: s.loading}
}

// Subscribe registers a session change callback. The callback receives the
// current snapshot immediately and again on every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	s.nextSub++
	key := s.nextSub
	s.subs[key] = fn
	snap := Snapshot{Identity: s.identity, Loading: s.loading}
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, key)
	}
}

// Logout signs out of the gateway, clears local state, and navigates to the
// auth entry point.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.gw.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	if s.navigate != nil {
		s.navigate(PathAuth)
	}
	return nil
}

// Close detaches the gateway subscription. The store keeps its last snapshot
// but receives no further updates.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
