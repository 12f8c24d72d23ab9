// Package auth signs and verifies the RS256 JSON Web Tokens handed out to
// principals. Access and refresh tokens use separate key pairs, so a token
// only verifies against the class it was issued for.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/keys"
	"github.com/dmitrijs2005/identity/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the token body: the sanitized user plus the registered claims.
type Claims struct {
	models.User
	jwt.RegisteredClaims
}

// KeyProvider hands out the key pair of a token class.
type KeyProvider interface {
	PrivateKey(ctx context.Context, class keys.Class) (*rsa.PrivateKey, error)
	PublicKey(ctx context.Context, class keys.Class) (*rsa.PublicKey, error)
}

// TokenService mints and verifies tokens. It holds no state besides its
// configuration; keys are owned by the KeyProvider.
type TokenService struct {
	keys       KeyProvider
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService returns a TokenService. Zero TTLs fall back to the defaults.
func NewTokenService(kp KeyProvider, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	s := &TokenService{
		keys:       kp,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) ttl(class keys.Class) time.Duration {
	if class == keys.Refresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// GenerateToken signs the sanitized user as a token of the given class.
// A positive ttl overrides the class default.
func (s *TokenService) GenerateToken(ctx context.Context, class keys.Class, user models.User, ttl time.Duration) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: type expected to be access or refresh, got %q", common.ErrorInvalidArgument, class)
	}
	if ttl <= 0 {
		ttl = s.ttl(class)
	}

	privateKey, err := s.keys.PrivateKey(ctx, class)
	if err != nil {
		return "", err
	}

	now := s.now()
	payload := user.Sanitize()
	claims := Claims{
		User: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry(now, ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", class, err)
	}
	return token, nil
}

// expiry rounds now+ttl up to a whole second. NumericDate truncates to
// seconds, so rounding down would let a token expire before its ttl.
func expiry(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		exp = t.Add(time.Second)
	}
	return exp
}

// VerifyToken checks signature and expiry against the class public key and
// returns the embedded user. It never mutates state.
func (s *TokenService) VerifyToken(ctx context.Context, class keys.Class, tokenString string) (*models.User, error) {
	claims, err := s.ParseClaims(ctx, class, tokenString)
	if err != nil {
		return nil, err
	}
	user := claims.User
	return &user, nil
}

// ParseClaims is VerifyToken returning the full claim set.
func (s *TokenService) ParseClaims(ctx context.Context, class keys.Class, tokenString string) (*Claims, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: type expected to be access or refresh, got %q", common.ErrorInvalidArgument, class)
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: token is required", common.ErrorInvalidArgument)
	}

	publicKey, err := s.keys.PublicKey(ctx, class)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// mapJWTError translates jwt library errors to the common taxonomy.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: malformed token: %v", common.ErrorInvalidArgument, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
}
