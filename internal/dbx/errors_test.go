package dbx

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestError(t *testing.T) {
	assert.NoError(t, Error(nil))

	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	err := Error(unique)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.ErrorIs(t, err, unique)
	assert.Contains(t, err.Error(), "users_username_key")

	fk := &pgconn.PgError{Code: "23503"}
	assert.ErrorIs(t, Error(fk), common.ErrorNotFound)

	down := errors.New("connection refused")
	err = Error(down)
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)

	other := &pgconn.PgError{Code: "57P01"}
	assert.ErrorIs(t, Error(other), common.ErrorStoreUnavailable)
}

func TestMongoError(t *testing.T) {
	assert.NoError(t, MongoError(nil))
	assert.ErrorIs(t, MongoError(mongo.ErrNoDocuments), common.ErrorNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	err := MongoError(dup)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	down := errors.New("server selection timeout")
	err = MongoError(down)
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.ErrorIs(t, err, down)
}
