package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/shopfront/internal/store"
)

const sessionKeyPrefix = "admin_session:"

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionExpired is returned when a session token no longer resolves.
	ErrSessionExpired = errors.New("session expired")
	// ErrAlreadySetup is returned when setup runs against an existing account.
	ErrAlreadySetup = errors.New("admin account already exists")
	// ErrWeakPassword rejects setup passwords shorter than six characters.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// Querier captures the admin account store methods.
type Querier interface {
	GetAdminByUsername(ctx context.Context, username string) (store.AdminUser, error)
	GetAdminByID(ctx context.Context, id uuid.UUID) (store.AdminUser, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (store.AdminUser, error)
}

// Service authenticates the back-office admin. Sessions are opaque random
// tokens stored in Redis; the token never encodes anything.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
}

// Login verifies credentials and mints a session token. Failures are uniform
// so the endpoint cannot confirm which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (string, store.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", store.AdminUser{}, ErrInvalidCredentials
	}
	admin, err := s.Q.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.AdminUser{}, ErrInvalidCredentials
		}
		return "", store.AdminUser{}, err
	}
	match, err := argon2id.ComparePasswordAndHash(password, admin.PasswordHash)
	if err != nil {
		return "", store.AdminUser{}, err
	}
	if !match {
		return "", store.AdminUser{}, ErrInvalidCredentials
	}
	token, err := newToken()
	if err != nil {
		return "", store.AdminUser{}, err
	}
	if err := s.R.Set(ctx, sessionKeyPrefix+token, admin.ID.String(), s.TTL).Err(); err != nil {
		return "", store.AdminUser{}, err
	}
	return token, admin, nil
}

// Resolve maps a session token back to the admin account.
func (s *Service) Resolve(ctx context.Context, token string) (store.AdminUser, error) {
	if token == "" {
		return store.AdminUser{}, ErrSessionExpired
	}
	raw, err := s.R.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.AdminUser{}, ErrSessionExpired
		}
		return store.AdminUser{}, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return store.AdminUser{}, ErrSessionExpired
	}
	admin, err := s.Q.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.AdminUser{}, ErrSessionExpired
		}
		return store.AdminUser{}, err
	}
	return admin, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.R.Del(ctx, sessionKeyPrefix+token).Err()
}

// Setup creates the admin account on first run.
func (s *Service) Setup(ctx context.Context, username, password string) (store.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	if len(password) < 6 {
		return store.AdminUser{}, ErrWeakPassword
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return store.AdminUser{}, err
	}
	admin, err := s.Q.CreateAdmin(ctx, username, hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.AdminUser{}, ErrAlreadySetup
		}
		return store.AdminUser{}, err
	}
	return admin, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
