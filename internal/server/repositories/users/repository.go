// Package users stores registered principals. Implementations exist for
// PostgreSQL, MongoDB and process memory; all of them return the
// common error sentinels so callers never inspect driver errors.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/identity/internal/server/models"
)

// Repository persists users.
type Repository interface {
	// Create inserts user and fills in its store ID. Duplicate username,
	// email or user_id fails with common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByUsername, FindByEmail and FindByID return common.ErrorNotFound
	// when no user matches.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// RecordLogin sets last_login and updated_at of the user with store id.
	RecordLogin(ctx context.Context, id string, at time.Time) error
}
