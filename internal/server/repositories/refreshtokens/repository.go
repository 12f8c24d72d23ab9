// Package refreshtokens declares the repository contract for the server-side
// refresh token records, together with its store implementations.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/identity/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new record. A duplicate token fails with
	// common.ErrorAlreadyExists; an unknown owner with common.ErrorNotFound
	// where the store enforces it.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a record by its token string and returns
	// common.ErrorNotFound when it is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a record by its token string. Deleting a non-existent
	// token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser removes every record owned by userID and reports how
	// many were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
