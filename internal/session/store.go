// ABOUTME: Session store holding the viewer's credential and resolved identity
// ABOUTME: Verifies stored credentials against the API and discards results for superseded credentials

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/markalston/networkhub/internal/client"
)

var (
	// ErrIncompleteSession is returned by Login when either half of the session is missing
	ErrIncompleteSession = errors.New("session requires both a credential and an identity")
	// ErrNoSession is returned when an operation needs an authenticated session
	ErrNoSession = errors.New("not signed in")
)

// IdentityAPI resolves the identity behind a credential
type IdentityAPI interface {
	GetProfile(ctx context.Context, token string) (*client.User, error)
}

// Store owns the credential and identity. Identity is set only while a
// credential is set; every credential change bumps the generation.
type Store struct {
	api     IdentityAPI
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group

	mu         sync.Mutex
	credential string
	identity   *client.User
	generation uint64
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for verification diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the clock used for credential expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty, unauthenticated store
func New(api IdentityAPI, storage Storage, opts ...Option) *Store {
	s := &Store{
		api:     api,
		storage: storage,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted credential and verifies it.
// With nothing stored it returns without touching the network.
func (s *Store) Initialize(ctx context.Context) error {
	token, err := s.storage.Load()
	if err != nil {
		s.logger.Debug("session load failed", "error", err)
		return fmt.Errorf("failed to load session: %w", err)
	}
	if token == "" {
		s.logger.Debug("no stored session")
		return nil
	}

	s.mu.Lock()
	s.credential = token
	s.identity = nil
	s.generation++
	s.mu.Unlock()

	s.Resolve(ctx)
	return nil
}

// HasStoredCredential reports whether a credential is persisted, without verifying it
func (s *Store) HasStoredCredential() bool {
	token, err := s.storage.Load()
	return err == nil && token != ""
}

// Resolve verifies the current credential and replaces the identity with the
// server's answer. Any failure clears the session. A result for a credential
// that changed while the request was in flight is dropped, and so is one the
// caller stopped waiting for: cancelling ctx leaves the session as it was.
// Concurrent callers share one request that no single caller can cancel.
// It reports whether the store is authenticated afterwards.
func (s *Store) Resolve(ctx context.Context) bool {
	s.mu.Lock()
	token, gen := s.credential, s.generation
	s.mu.Unlock()

	if token == "" {
		return false
	}
	if s.expired(token) {
		s.invalidate(gen, "credential expired")
		return false
	}
	if ctx.Err() != nil {
		s.logger.Debug("session verification skipped", "error", ctx.Err())
		return s.Authenticated()
	}

	ch := s.group.DoChan(token, func() (any, error) {
		return s.api.GetProfile(context.WithoutCancel(ctx), token)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.logger.Debug("session verification abandoned", "error", ctx.Err())
		return s.Authenticated()
	}

	if res.Err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("session verification interrupted", "error", res.Err)
			return s.Authenticated()
		}
		if !s.invalidate(gen, res.Err.Error()) {
			return s.Authenticated()
		}
		return false
	}

	user := *res.Val.(*client.User)
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding identity for superseded credential", "generation", gen)
		return s.credential != "" && s.identity != nil
	}
	s.identity = &user
	s.logger.Debug("session verified", "user", user.ID, "shared", res.Shared)
	return true
}

// Login persists the credential, then adopts credential and identity together.
// When persisting fails the store is left unchanged.
func (s *Store) Login(credential string, identity *client.User) error {
	if credential == "" || identity == nil {
		return ErrIncompleteSession
	}
	user := *identity

	if err := s.storage.Save(credential); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.credential = credential
	s.identity = &user
	s.generation++
	s.mu.Unlock()
	return nil
}

// Logout clears credential and identity and forgets the persisted credential
func (s *Store) Logout() error {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	s.generation++
	s.mu.Unlock()

	if err := s.storage.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// UpdateIdentity applies fn to the in-memory identity. Nothing is persisted.
func (s *Store) UpdateIdentity(fn func(*client.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return ErrNoSession
	}
	user := *s.identity
	fn(&user)
	s.identity = &user
	return nil
}

// Credential returns the current bearer token, "" when signed out
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

// Identity returns a copy of the verified identity
func (s *Store) Identity() (client.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return client.User{}, false
	}
	return *s.identity, true
}

// Authenticated reports whether both credential and identity are present
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != "" && s.identity != nil
}

// Generation changes every time the credential does
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// invalidate clears the session if gen is still current and reports whether it did
func (s *Store) invalidate(gen uint64, reason string) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.credential = ""
	s.identity = nil
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("session verification failed", "reason", reason)
	if err := s.storage.Clear(); err != nil {
		s.logger.Debug("failed to clear stored session", "error", err)
	}
	return true
}

// expired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired locally.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}
