// ABOUTME: Authentication collaborator that guards the HTTP API.
// ABOUTME: Verifies a password, issues expiring session tokens, and revokes them.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
)

// DefaultTTL is how long an issued session stays valid.
const DefaultTTL = 24 * time.Hour

const issuer = "oura"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidSession    = errors.New("invalid session")
)

// Session is an issued login together with its bearer token.
type Session struct {
	Token     string    `json:"token"`
	ID        string    `json:"sessionId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Authenticator is the capability the API depends on.
type Authenticator interface {
	// Verify checks a credential and issues a new session.
	Verify(ctx context.Context, credential string) (*Session, error)
	// Validate checks a bearer token and returns its session.
	Validate(ctx context.Context, token string) (*Session, error)
	// Revoke ends the session behind token.
	Revoke(ctx context.Context, token string) error
}

// SessionStore persists sessions so they can be revoked early.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
}

// Options configures a PasswordAuthenticator.
type Options struct {
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
	Store        SessionStore
	Now          func() time.Time
	Log          *logging.Logger
}

// PasswordAuthenticator checks a single bcrypt-hashed password and issues
// HS256 session tokens.
type PasswordAuthenticator struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	store  SessionStore
	now    func() time.Time
	log    *logging.Logger
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator validates opts and fills defaults.
func NewPasswordAuthenticator(opts Options) (*PasswordAuthenticator, error) {
	if opts.PasswordHash == "" {
		return nil, errors.New("password hash is not configured")
	}
	if _, err := bcrypt.Cost([]byte(opts.PasswordHash)); err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}
	if len(opts.Secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	return &PasswordAuthenticator{
		hash:   []byte(opts.PasswordHash),
		secret: opts.Secret,
		ttl:    opts.TTL,
		store:  opts.Store,
		now:    opts.Now,
		log:    opts.Log,
	}, nil
}

// Verify compares password against the configured hash and issues a session.
func (a *PasswordAuthenticator) Verify(ctx context.Context, password string) (*Session, error) {
	if password == "" {
		return nil, ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		a.log.Warn("login rejected")
		return nil, ErrInvalidCredential
	}

	// Token timestamps have second precision.
	now := a.now().Truncate(time.Second)
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	s := &Session{ID: id.String(), IssuedAt: now, ExpiresAt: now.Add(a.ttl)}
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Issuer:    issuer,
		Subject:   issuer,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	s.Token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	if err := a.store.CreateSession(ctx, &models.Session{ID: s.ID, IssuedAt: s.IssuedAt, ExpiresAt: s.ExpiresAt}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	a.log.Info("session issued", "session_id", s.ID, "expires_at", s.ExpiresAt)
	return s, nil
}

// Validate checks the token signature and expiry, then that the session
// has not been revoked.
func (a *PasswordAuthenticator) Validate(ctx context.Context, token string) (*Session, error) {
	claims, err := a.parse(token, true)
	if err != nil {
		return nil, err
	}

	stored, err := a.store.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	now := a.now()
	if stored.RevokedAt != nil {
		return nil, ErrInvalidSession
	}
	if !now.Before(stored.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	return &Session{Token: token, ID: stored.ID, IssuedAt: stored.IssuedAt, ExpiresAt: stored.ExpiresAt}, nil
}

// Revoke ends the session. Expired tokens can still be revoked.
func (a *PasswordAuthenticator) Revoke(ctx context.Context, token string) error {
	claims, err := a.parse(token, false)
	if err != nil {
		return err
	}
	if err := a.store.RevokeSession(ctx, claims.ID, a.now()); err != nil {
		return ErrInvalidSession
	}
	a.log.Info("session revoked", "session_id", claims.ID)
	return nil
}

func (a *PasswordAuthenticator) parse(token string, checkExpiry bool) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, ErrInvalidSession
	case claims.ID == "":
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// HashPassword returns a bcrypt hash suitable for the config file.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// MinPasswordLength is the shortest password HashPassword accepts.
const MinPasswordLength = 8

// ValidatePassword checks the password rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
