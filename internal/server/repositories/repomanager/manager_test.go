package repomanager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/models"
	"github.com/dmitrijs2005/identity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/identity/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "redis"})
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestOpen_MongoRequiresURI(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverMongo, MongoDatabase: "identity"})
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestMemoryRepositoryManager(t *testing.T) {
	m, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.RunMigrations(ctx))

	err = m.WithinTx(ctx, func(ctx context.Context, u users.Repository, rt refreshtokens.Repository) error {
		created, err := u.Create(ctx, &models.User{UserID: "u1", Username: "alice"})
		if err != nil {
			return err
		}
		return rt.Create(ctx, &models.RefreshToken{Token: "t1", UserID: created.ID})
	})
	require.NoError(t, err)

	u, err := m.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	rt, err := m.RefreshTokens().Find(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, rt.UserID)

	assert.NoError(t, m.Close(ctx))
}
