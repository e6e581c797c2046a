// Package session persists the bearer token and the last known profile.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airbooking-client/internal/domain"
	"github.com/Domenick1991/airbooking-client/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	KeyToken = "jwt_token"
	KeyUser  = "user_info"
)

// ErrNoSession is returned when a profile is saved without a stored token.
var ErrNoSession = errors.New("session: no token stored")

// Manager owns the Session: a token and, only alongside it, a profile.
type Manager struct {
	backend Backend
	log     zerolog.Logger
}

func NewManager(backend Backend, log zerolog.Logger) *Manager {
	return &Manager{backend: backend, log: logging.Component(log, "session")}
}

func (m *Manager) SaveToken(ctx context.Context, token string) error {
	if err := m.backend.Set(ctx, map[string]string{KeyToken: token}); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns the stored token. Read failures are logged and reported
// as absent so that callers simply go out unauthenticated.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	token, ok, err := m.backend.Get(ctx, KeyToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("read token")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// SaveUser replaces the profile of an existing session, e.g. after a
// refetch. Logging in goes through SaveSession.
func (m *Manager) SaveUser(ctx context.Context, profile domain.Profile) error {
	if _, ok := m.Token(ctx); !ok {
		return ErrNoSession
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.backend.Set(ctx, map[string]string{KeyUser: string(data)}); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SaveSession stores token and profile in one atomic write.
func (m *Manager) SaveSession(ctx context.Context, token string, profile domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.backend.Set(ctx, map[string]string{KeyToken: token, KeyUser: string(data)}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// User returns the persisted profile. Missing, unreadable or corrupt data
// all mean "no personalization available".
func (m *Manager) User(ctx context.Context) (*domain.Profile, bool) {
	raw, ok, err := m.backend.Get(ctx, KeyUser)
	if err != nil {
		m.log.Warn().Err(err).Msg("read profile")
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.log.Warn().Err(err).Msg("discarding corrupt profile")
		return nil, false
	}
	return &p, true
}

func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	_, ok := m.Token(ctx)
	return ok
}

// Logout removes token and profile together.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.backend.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. Tokens
// that are not JWTs, or carry no exp, yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
