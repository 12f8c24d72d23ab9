package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Error maps a driver error to the common taxonomy. Unique violations become
// common.ErrorAlreadyExists and foreign key violations common.ErrorNotFound;
// anything else is common.ErrorStoreUnavailable. The driver error is always
// kept in the chain.
func Error(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s: %w", common.ErrorAlreadyExists, pgErr.ConstraintName, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s: %w", common.ErrorNotFound, pgErr.ConstraintName, err)
		}
	}

	return fmt.Errorf("%w: db error: %w", common.ErrorStoreUnavailable, err)
}
