// Package auth gates the API behind a single administrator account: a
// bcrypt password check issues an HS256 token that later requests present
// as a bearer credential.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/AngelCh415/campaign-dash/internal/models"
)

const (
	DefaultTokenTTL = 7 * 24 * time.Hour
	BcryptCost      = 10
)

// ErrDenied is returned for every failed login or token check. Callers get
// no hint about which part failed.
var ErrDenied = errors.New("auth: access denied")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret       []byte
	adminEmail   string
	passwordHash []byte
	ttl          time.Duration
	log          *slog.Logger
	now          func() time.Time
	compare      func(hash, password []byte) error
}

func NewManager(secret, adminEmail, passwordHash string, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{
		secret:       []byte(secret),
		adminEmail:   adminEmail,
		passwordHash: []byte(passwordHash),
		ttl:          ttl,
		log:          log,
		now:          time.Now,
		compare:      bcrypt.CompareHashAndPassword,
	}
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("auth: empty password")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(h), nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

// dummyHash is compared against when there is no real hash to check, so
// every login attempt costs one bcrypt comparison.
func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("campaign-dash"), BcryptCost)
	})
	return dummy
}

// Authenticate checks the admin credentials and returns a fresh token. The
// password is always run through bcrypt, even for an unknown email.
func (m *Manager) Authenticate(email, password string) (string, error) {
	hash := m.passwordHash
	if email != m.adminEmail || len(hash) == 0 {
		hash = dummyHash()
	}
	pwErr := m.compare(hash, []byte(password))
	switch {
	case email != m.adminEmail:
		m.log.Warn("login rejected", slog.String("reason", "unknown email"))
		return "", ErrDenied
	case len(m.passwordHash) == 0:
		m.log.Error("login rejected", slog.String("reason", "admin password hash not configured"))
		return "", ErrDenied
	case pwErr != nil:
		m.log.Warn("login rejected", slog.String("reason", "bad password"))
		return "", ErrDenied
	}
	tok, err := m.IssueToken(email)
	if err != nil {
		return "", err
	}
	m.log.Info("login succeeded", slog.String("email", email))
	return tok, nil
}

func (m *Manager) IssueToken(email string) (string, error) {
	now := m.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature, algorithm and expiry. It never changes state.
func (m *Manager) Verify(token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrDenied
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		m.log.Debug("token rejected", slog.String("err", err.Error()))
		return models.Identity{}, ErrDenied
	}
	return models.Identity{Email: claims.Email}, nil
}

// ExtractBearer returns the token of a "Bearer <token>" header. The scheme
// is case sensitive.
func ExtractBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
