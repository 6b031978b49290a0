// Package auth implements admin sign in backed by the table store:
// bcrypt credentials in admin_users, one sessions row per sign in, and a
// signed JWT whose jti names that row.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sportstore/internal/model"
	"sportstore/internal/storage"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoSession is returned when a token does not name a live session.
	ErrNoSession = errors.New("no active session")
	// ErrUserExists is returned when creating a user with a taken email.
	ErrUserExists = errors.New("user already exists")
)

const minPasswordLen = 8

// dummyHash is compared against when the email is unknown, so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service signs admins in and out.
type Service struct {
	store  storage.DataStore
	logger *slog.Logger
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewService creates a session service. An empty secret generates a
// random one, which invalidates sessions on every restart.
func NewService(store storage.DataStore, logger *slog.Logger, secret string, ttl time.Duration) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		store:  store,
		logger: logger,
		secret: key,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) findUser(ctx context.Context, email string) (model.AdminUser, error) {
	recs, err := s.store.List(ctx, model.CollectionAdminUsers, storage.Query{Limit: 1}.Where("email", email))
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("look up admin user: %w", err)
	}
	if len(recs) == 0 {
		return model.AdminUser{}, storage.ErrNotFound
	}
	var u model.AdminUser
	if err := storage.Decode(recs[0], &u); err != nil {
		return model.AdminUser{}, fmt.Errorf("decode admin user: %w", err)
	}
	return u, nil
}

// CreateUser stores a new admin account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, email, password string) (model.AdminUser, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return model.AdminUser{}, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < minPasswordLen {
		return model.AdminUser{}, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if _, err := s.findUser(ctx, email); err == nil {
		return model.AdminUser{}, fmt.Errorf("%w: %s", ErrUserExists, email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.AdminUser{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("hash password: %w", err)
	}
	rec, err := s.store.Insert(ctx, model.CollectionAdminUsers, storage.Record{
		"email":         email,
		"password_hash": string(hash),
	})
	if err != nil {
		return model.AdminUser{}, fmt.Errorf("insert admin user: %w", err)
	}
	var u model.AdminUser
	if err := storage.Decode(rec, &u); err != nil {
		return model.AdminUser{}, fmt.Errorf("decode admin user: %w", err)
	}
	s.logger.Info("Created admin user", "userID", u.ID, "email", u.Email)
	return u, nil
}

// SignIn checks the credentials, records a session and returns it with the
// token to hand to the browser.
func (s *Service) SignIn(ctx context.Context, email, password string) (model.Session, string, error) {
	email = normalizeEmail(email)
	user, err := s.findUser(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return model.Session{}, "", err
	}
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.Info("Sign in rejected", "email", email, "reason", "unknown email")
		return model.Session{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("Sign in rejected", "email", email, "reason", "wrong password")
		return model.Session{}, "", ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if _, err := s.store.Insert(ctx, model.CollectionSessions, storage.Record{
		"id":         sess.ID,
		"user_id":    sess.UserID,
		"email":      sess.Email,
		"expires_at": sess.ExpiresAt,
		"created_at": sess.CreatedAt,
	}); err != nil {
		return model.Session{}, "", fmt.Errorf("insert session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return model.Session{}, "", fmt.Errorf("sign session token: %w", err)
	}
	s.logger.Info("Admin signed in", "userID", user.ID, "sessionID", sess.ID)
	return sess, signed, nil
}

func (s *Service) parse(token string, opts ...jwt.ParserOption) (*claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetSession returns the live session named by token. Bad signatures,
// expired tokens and signed out sessions all yield ErrNoSession.
func (s *Service) GetSession(ctx context.Context, token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, ErrNoSession
	}
	c, err := s.parse(token, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		s.logger.Debug("Rejected session token", "error", err)
		return model.Session{}, ErrNoSession
	}
	rec, err := s.store.Get(ctx, model.CollectionSessions, c.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Session{}, ErrNoSession
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess model.Session
	if err := storage.Decode(rec, &sess); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if sess.Expired(s.now()) {
		return model.Session{}, ErrNoSession
	}
	return sess, nil
}

// SignOut ends the session named by token. Unknown or already ended
// sessions are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	// Expired tokens still sign out, so their rows do not linger.
	c, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	err = s.store.Delete(ctx, model.CollectionSessions, c.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Admin signed out", "sessionID", c.ID)
	return nil
}

// PurgeExpired deletes session rows past their expiry and reports how many
// were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	recs, err := s.store.List(ctx, model.CollectionSessions, storage.Query{})
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	sessions, err := storage.DecodeAll[model.Session](recs)
	if err != nil {
		return 0, fmt.Errorf("decode sessions: %w", err)
	}
	now := s.now()
	purged := 0
	for _, sess := range sessions {
		if !sess.Expired(now) {
			continue
		}
		if err := s.store.Delete(ctx, model.CollectionSessions, sess.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return purged, fmt.Errorf("delete session %s: %w", sess.ID, err)
		}
		purged++
	}
	return purged, nil
}
