// Package session owns the authentication session: the durable bearer
// token and the current user profile. The store is created explicitly
// and injected into whatever needs it; there is no package-level
// singleton.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/equitylens/equitylens/internal/api"
)

// User is the authenticated user profile returned by the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// AuthAPI is the slice of the gateway client the store needs.
type AuthAPI interface {
	GetJSON(ctx context.Context, path string, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
}

// Store holds the session for the lifetime of the process and persists
// the token across runs. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	tokens *tokenFile
	api    AuthAPI
	logger *zap.Logger

	token  string
	user   *User
	errMsg string
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a session store rooted at stateDir and loads any
// previously persisted token.
func NewStore(stateDir string, authAPI AuthAPI, opts ...Option) (*Store, error) {
	tokens, err := newTokenFile(stateDir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		tokens: tokens,
		api:    authAPI,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := tokens.Read()
	if err != nil {
		return nil, err
	}
	s.token = token

	return s, nil
}

type verifyResponse struct {
	Valid bool  `json:"valid"`
	User  *User `json:"user,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Verify checks the held token against the backend. Without a token it
// resolves immediately as unauthenticated. An invalid token or any
// transport failure clears the session, same as a logout.
func (s *Store) Verify(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return
	}

	var resp verifyResponse
	if err := s.api.GetJSON(ctx, "/auth/verify", &resp); err != nil {
		s.logger.Warn("token verification failed", zap.Error(err))
		s.Logout()
		return
	}

	if !resp.Valid {
		s.logger.Info("stored token is no longer valid")
		s.Logout()
		return
	}

	s.mu.Lock()
	s.user = resp.User
	s.mu.Unlock()
}

// Login authenticates with email and password. On success the token is
// persisted and the user set; on failure Err() carries a user-facing
// message and the store stays unauthenticated.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	return s.authenticate(ctx, "/auth/login",
		credentialsRequest{Email: email, Password: password},
		"Login failed. Please try again.")
}

// Register creates an account. Same contract as Login.
func (s *Store) Register(ctx context.Context, email, password, name string) bool {
	return s.authenticate(ctx, "/auth/register",
		credentialsRequest{Email: email, Password: password, Name: name},
		"Registration failed. Please try again.")
}

func (s *Store) authenticate(ctx context.Context, path string, req credentialsRequest, fallback string) bool {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()

	var resp authResponse
	if err := s.api.PostJSON(ctx, path, req, &resp); err != nil {
		s.logger.Warn("authentication failed", zap.String("path", path), zap.Error(err))
		s.mu.Lock()
		s.errMsg = api.Detail(err, fallback)
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.mu.Unlock()

	if err := s.tokens.Write(resp.Token); err != nil {
		// The session still works for this process; it just won't
		// survive a restart.
		s.logger.Error("persist token", zap.Error(err))
	}

	return true
}

// Logout clears durable and in-memory session state unconditionally.
func (s *Store) Logout() {
	if err := s.tokens.Remove(); err != nil {
		s.logger.Error("remove token file", zap.Error(err))
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Token returns the current bearer token, or "" when logged out. It
// satisfies the gateway client's token source.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CurrentUser returns the verified user, or nil.
func (s *Store) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a current user is set.
func (s *Store) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// Err returns the user-facing message from the last failed login or
// registration.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}
