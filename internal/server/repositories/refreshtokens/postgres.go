package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/dbx"
	"github.com/dmitrijs2005/identity/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts token and fills in its ID.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	owner, err := strconv.ParseInt(token.UserID, 10, 64)
	if err != nil {
		return common.ErrorNotFound
	}

	query := `
		INSERT INTO refresh_tokens (token, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, token.Token, owner, token.CreatedAt, token.UpdatedAt).Scan(&token.ID); err != nil {
		return dbx.Error(err)
	}
	return nil
}

// Find returns the record for the given token string.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, created_at, updated_at
		FROM refresh_tokens
		WHERE token = $1
	`
	rt := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}
	return rt, nil
}

// Delete removes a refresh token by its token string.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return dbx.Error(err)
	}
	return nil
}

// DeleteByUser removes all refresh tokens of a user.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	owner, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, nil
	}

	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, owner)
	if err != nil {
		return 0, dbx.Error(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbx.Error(err)
	}
	return n, nil
}
