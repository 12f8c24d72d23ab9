// Package services contains the identity business logic. IdentityService
// composes the credential store, password hasher and token service into
// registration, login, token refresh, logout and access token validation.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/dmitrijs2005/identity/internal/server/keys"
	"github.com/dmitrijs2005/identity/internal/server/models"
)

// AdminUsername is the principal created by SeedAdmin.
const AdminUsername = "admin"

// CredentialStore is the persistence the service needs.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, draft models.UserDraft, passwordHash string) (*models.User, error)
	RecordLogin(ctx context.Context, user *models.User) error
	AddRefreshToken(ctx context.Context, userID, token string) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RemoveRefreshToken(ctx context.Context, token string) error
	RemoveRefreshTokensByOwner(ctx context.Context, userID string) (int64, error)
}

type PasswordHasher interface {
	Hash(plainText string) (string, error)
	Compare(plainText, hash string) (bool, error)
}

type TokenIssuer interface {
	GenerateToken(ctx context.Context, class keys.Class, user models.User, ttl time.Duration) (string, error)
	VerifyToken(ctx context.Context, class keys.Class, token string) (*models.User, error)
}

// Credentials identify a principal by exactly one of Username or Email.
// Password is only used by Login.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned by a successful Login. User is the sanitized
// principal, the same projection that is signed into both tokens.
type LoginResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// Validation is the outcome of ValidateAccessToken.
type Validation struct {
	User      *models.User `json:"user"`
	Validated bool         `json:"validated"`
}

type IdentityService struct {
	store  CredentialStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger logging.Logger

	// dummyHash is compared against when the principal does not exist.
	dummyHash string
}

func NewIdentityService(store CredentialStore, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) *IdentityService {
	s := &IdentityService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
	if err := s.prepareDummyHash(); err != nil {
		logger.Error(context.Background(), "failed to prepare dummy password hash", "error", err)
	}
	return s
}

// Register hashes draft.Password, when one is given, and stores the
// principal. The returned user carries no password hash.
func (s *IdentityService) Register(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	var hash string
	if draft.Password != "" {
		h, err := s.hasher.Hash(draft.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	draft.Password = ""

	user, err := s.store.Insert(ctx, draft, hash)
	if err != nil {
		return nil, err
	}

	registered := user.Sanitize()
	return &registered, nil
}

// Login checks the password of the principal named by creds and issues an
// access and a refresh token. Unknown principals and wrong passwords both
// fail with common.ErrorAuthFailed.
func (s *IdentityService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if creds.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorInvalidArgument)
	}

	user, err := s.lookup(ctx, creds)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnCompare(creds.Password)
			return nil, common.ErrorAuthFailed
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		s.burnCompare(creds.Password)
		return nil, common.ErrorAuthFailed
	}

	ok, err := s.hasher.Compare(creds.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash rejected", "user_id", user.UserID, "error", err)
		return nil, common.ErrorAuthFailed
	}
	if !ok {
		return nil, common.ErrorAuthFailed
	}

	if err := s.store.RecordLogin(ctx, user); err != nil {
		return nil, err
	}

	payload := user.Sanitize()

	accessToken, err := s.tokens.GenerateToken(ctx, keys.Access, payload, 0)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateToken(ctx, keys.Refresh, payload, 0)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.UserID)

	return &LoginResult{AccessToken: accessToken, RefreshToken: refreshToken, User: &payload}, nil
}

// ValidateAccessToken never fails: any verification error yields
// Validation{Validated: false}.
func (s *IdentityService) ValidateAccessToken(ctx context.Context, token string) Validation {
	user, err := s.tokens.VerifyToken(ctx, keys.Access, token)
	if err != nil {
		s.logger.Debug(ctx, "access token rejected", "error", err)
		return Validation{}
	}
	return Validation{User: user, Validated: true}
}

// RefreshAccessToken exchanges a refresh token for a new access token. The
// refresh token is not rotated. A refresh token that fails verification is
// removed from the store before the error is returned; one without a stored
// record (logged out) fails with common.ErrInvalidToken.
func (s *IdentityService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", fmt.Errorf("%w: refresh token is required", common.ErrorInvalidArgument)
	}

	user, err := s.tokens.VerifyToken(ctx, keys.Refresh, refreshToken)
	if err != nil {
		if rmErr := s.store.RemoveRefreshToken(ctx, refreshToken); rmErr != nil {
			s.logger.Warn(ctx, "failed to remove rejected refresh token", "error", rmErr)
		}
		return "", err
	}

	if _, err := s.store.FindRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", fmt.Errorf("%w: refresh token revoked", common.ErrInvalidToken)
		}
		return "", err
	}

	return s.tokens.GenerateToken(ctx, keys.Access, *user, 0)
}

// Logout deletes the record of refreshToken. Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	return s.store.RemoveRefreshToken(ctx, refreshToken)
}

// LogoutEverywhere deletes every refresh token of the principal named by
// exactly one of creds.Username or creds.Email and reports how many were
// removed.
func (s *IdentityService) LogoutEverywhere(ctx context.Context, creds Credentials) (int64, error) {
	user, err := s.lookup(ctx, creds)
	if err != nil {
		return 0, err
	}

	n, err := s.store.RemoveRefreshTokensByOwner(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "user logged out everywhere", "user_id", user.UserID, "sessions", n)
	return n, nil
}

// SeedAdmin registers the admin principal unless it exists. It reports
// whether a principal was created; losing a race to another seeder is not
// an error.
func (s *IdentityService) SeedAdmin(ctx context.Context, password string) (bool, error) {
	_, err := s.store.FindByUsername(ctx, AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, err
	}

	admin, err := s.Register(ctx, models.UserDraft{
		Username:   AdminUsername,
		Password:   password,
		Name:       AdminUsername,
		GivenName:  AdminUsername,
		FamilyName: AdminUsername,
		Nickname:   AdminUsername,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info(ctx, "admin user created", "user_id", admin.UserID)
	return true, nil
}

func (s *IdentityService) lookup(ctx context.Context, creds Credentials) (*models.User, error) {
	username := strings.TrimSpace(creds.Username)
	email := strings.TrimSpace(creds.Email)

	switch {
	case username != "" && email != "":
		return nil, fmt.Errorf("%w: expected either username or email, not both", common.ErrorInvalidArgument)
	case username != "":
		return s.store.FindByUsername(ctx, username)
	case email != "":
		return s.store.FindByEmail(ctx, email)
	default:
		return nil, fmt.Errorf("%w: username or email is required", common.ErrorInvalidArgument)
	}
}

// burnCompare spends one hash comparison so that unknown principals take as
// long to reject as wrong passwords.
func (s *IdentityService) burnCompare(password string) {
	if s.dummyHash != "" {
		_, _ = s.hasher.Compare(password, s.dummyHash)
	}
}

func (s *IdentityService) prepareDummyHash() error {
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return err
	}
	h, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}
	s.dummyHash = h
	return nil
}
