package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/common"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoError is Error for the MongoDB driver: duplicate keys become
// common.ErrorAlreadyExists, mongo.ErrNoDocuments common.ErrorNotFound.
func MongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", common.ErrorAlreadyExists, err)
	default:
		return fmt.Errorf("%w: mongo error: %w", common.ErrorStoreUnavailable, err)
	}
}
