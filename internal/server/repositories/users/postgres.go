package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/dbx"
	"github.com/dmitrijs2005/identity/internal/server/models"
)

const userColumns = `id, user_id, username, password_hash, name, given_name, family_name, nickname,
		permissions, phone_number, phone_verified, picture, email, email_verified, identities,
		last_login, last_password_reset, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	identities, err := marshalIdentities(user.Identities)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (user_id, username, password_hash, name, given_name, family_name, nickname,
		 permissions, phone_number, phone_verified, picture, email, email_verified, identities,
		 last_login, last_password_reset, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING id
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.UserID, user.Username, nullString(user.PasswordHash), user.Name, user.GivenName,
		user.FamilyName, user.Nickname, user.Permissions, user.PhoneNumber, user.PhoneVerified,
		user.Picture, nullString(user.Email), user.EmailVerified, identities,
		user.LastLogin, user.LastPasswordReset, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)

	if err != nil {
		return nil, dbx.Error(err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, "id", n)
}

// findOne is only called with column names from this file.
func (r *PostgresRepository) findOne(ctx context.Context, column string, value any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ` + column + ` = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Error(err)
	}

	return user, nil
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE users SET last_login = $2, updated_at = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, n, at)
	if err != nil {
		return dbx.Error(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbx.Error(err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user              models.User
		passwordHash      sql.NullString
		email             sql.NullString
		identities        []byte
		lastLogin         sql.NullTime
		lastPasswordReset sql.NullTime
	)

	err := row.Scan(&user.ID, &user.UserID, &user.Username, &passwordHash, &user.Name,
		&user.GivenName, &user.FamilyName, &user.Nickname, &user.Permissions, &user.PhoneNumber,
		&user.PhoneVerified, &user.Picture, &email, &user.EmailVerified, &identities,
		&lastLogin, &lastPasswordReset, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	user.Email = email.String
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	if lastPasswordReset.Valid {
		t := lastPasswordReset.Time
		user.LastPasswordReset = &t
	}
	if len(identities) > 0 {
		if err := json.Unmarshal(identities, &user.Identities); err != nil {
			return nil, fmt.Errorf("decode identities: %w", err)
		}
		if len(user.Identities) == 0 {
			user.Identities = nil
		}
	}

	return &user, nil
}

func marshalIdentities(identities []map[string]any) (string, error) {
	if len(identities) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(identities)
	if err != nil {
		return "", fmt.Errorf("%w: identities: %v", common.ErrorInvalidArgument, err)
	}
	return string(b), nil
}

// nullString stores empty strings as NULL so optional unique columns
// (email) do not collide.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
