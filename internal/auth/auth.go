// Package auth authenticates front-end users through a priority-ordered list
// of strategies. The first enabled strategy handles every login.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"chat-relay/internal/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoStrategy         = errors.New("no authentication strategy enabled")
)

// Credentials is what a request presents.
type Credentials struct {
	User      string
	Password  string
	ProxyUser string // value of the trusted proxy header
}

// Strategy is one way of authenticating users.
type Strategy interface {
	Name() string
	Enabled() bool
	Authenticate(ctx context.Context, creds Credentials) (string, error)
}

// Authenticator delegates to the selected strategy.
type Authenticator struct {
	selected Strategy
}

// NewAuthenticator selects the first enabled strategy, in the given order.
func NewAuthenticator(log logger.Logger, strategies ...Strategy) *Authenticator {
	for _, s := range strategies {
		if s != nil && s.Enabled() {
			log.Info("auth strategy selected", logger.String("strategy", s.Name()))
			return &Authenticator{selected: s}
		}
	}
	log.Error("none of the auth strategies are enabled")
	return &Authenticator{}
}

// Strategy returns the name of the selected strategy, empty when none.
func (a *Authenticator) Strategy() string {
	if a.selected == nil {
		return ""
	}
	return a.selected.Name()
}

// Authenticate returns the user name creds belong to.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if a.selected == nil {
		return "", ErrNoStrategy
	}
	return a.selected.Authenticate(ctx, creds)
}

// ProxyStrategy trusts a user name set by a reverse proxy header.
type ProxyStrategy struct {
	header string
	known  func(string) bool
}

// NewProxyStrategy is enabled when header is set. known reports whether a
// user name has a session.
func NewProxyStrategy(header string, known func(string) bool) *ProxyStrategy {
	return &ProxyStrategy{header: header, known: known}
}

func (s *ProxyStrategy) Name() string   { return "proxy" }
func (s *ProxyStrategy) Enabled() bool  { return s.header != "" }
func (s *ProxyStrategy) Header() string { return s.header }

func (s *ProxyStrategy) Authenticate(_ context.Context, creds Credentials) (string, error) {
	if creds.ProxyUser == "" || (s.known != nil && !s.known(creds.ProxyUser)) {
		return "", ErrInvalidCredentials
	}
	return creds.ProxyUser, nil
}

// LocalStrategy checks passwords against bcrypt hashes from the config. It
// is always enabled and should be the last strategy.
type LocalStrategy struct {
	hashes map[string]string
}

func NewLocalStrategy(hashes map[string]string) *LocalStrategy {
	return &LocalStrategy{hashes: hashes}
}

func (s *LocalStrategy) Name() string  { return "local" }
func (s *LocalStrategy) Enabled() bool { return true }

func (s *LocalStrategy) Authenticate(_ context.Context, creds Credentials) (string, error) {
	hash, ok := s.hashes[creds.User]
	if !ok || hash == "" || !CheckPassword(hash, creds.Password) {
		return "", ErrInvalidCredentials
	}
	return creds.User, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
