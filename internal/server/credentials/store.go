// Package credentials is the thin adapter between the identity service and
// the user and refresh token repositories. It owns identifier and timestamp
// assignment and makes token deletes idempotent.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/dmitrijs2005/identity/internal/server/models"
	"github.com/dmitrijs2005/identity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/identity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/identity/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Repositories is the part of repomanager.RepositoryManager the store needs.
type Repositories interface {
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	WithinTx(ctx context.Context, fn repomanager.TxFunc) error
}

type Store struct {
	repos  Repositories
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString for user_id assignment.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(repos Repositories, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		repos:  repos,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorInvalidArgument)
	}
	return s.repos.Users().FindByUsername(ctx, username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorInvalidArgument)
	}
	return s.repos.Users().FindByEmail(ctx, email)
}

// FindByID looks a user up by its store id.
func (s *Store) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrorInvalidArgument)
	}
	return s.repos.Users().FindByID(ctx, id)
}

// Insert persists draft with the already hashed password. It assigns a new
// user_id and sets both timestamps to the current UTC time.
func (s *Store) Insert(ctx context.Context, draft models.UserDraft, passwordHash string) (*models.User, error) {
	if err := models.ValidateUsername(draft.Username); err != nil {
		return nil, err
	}

	user := draft.ToUser()
	user.UserID = s.newID()
	user.PasswordHash = passwordHash
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	created, err := s.repos.Users().Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "user_id", created.UserID)
	return created, nil
}

// RecordLogin stamps last_login and updated_at on user, in the store and on
// the value itself.
func (s *Store) RecordLogin(ctx context.Context, user *models.User) error {
	at := s.now().UTC()
	if err := s.repos.Users().RecordLogin(ctx, user.ID, at); err != nil {
		return err
	}
	user.LastLogin = &at
	user.UpdatedAt = at
	return nil
}

// AddRefreshToken stores token for the user with store id userID. An
// unknown owner fails with common.ErrorNotFound.
func (s *Store) AddRefreshToken(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return fmt.Errorf("%w: user id and token are required", common.ErrorInvalidArgument)
	}

	now := s.now().UTC()
	return s.repos.WithinTx(ctx, func(ctx context.Context, u users.Repository, rt refreshtokens.Repository) error {
		if _, err := u.FindByID(ctx, userID); err != nil {
			return err
		}
		return rt.Create(ctx, &models.RefreshToken{
			Token:     token,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

// FindRefreshToken returns the record of token or common.ErrorNotFound.
func (s *Store) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", common.ErrorInvalidArgument)
	}
	return s.repos.RefreshTokens().Find(ctx, token)
}

// RemoveRefreshToken deletes one record. Absent tokens are not an error.
func (s *Store) RemoveRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.repos.RefreshTokens().Delete(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

// RemoveRefreshTokensByOwner deletes every record of the user with store id
// userID and returns how many were removed.
func (s *Store) RemoveRefreshTokensByOwner(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", common.ErrorInvalidArgument)
	}
	n, err := s.repos.RefreshTokens().DeleteByUser(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return 0, nil
	}
	return n, err
}
