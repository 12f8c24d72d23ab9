package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/identity/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepositoryManager vends MongoDB-backed repositories.
type MongoRepositoryManager struct {
	client        *mongo.Client
	users         *users.MongoRepository
	refreshTokens *refreshtokens.MongoRepository
}

// NewMongoRepositoryManager uses database on a connected client.
func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	db := client.Database(database)
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db),
		refreshTokens: refreshtokens.NewMongoRepository(db),
	}
}

// OpenMongo connects to uri and pings the primary.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("%w: mongo uri and database are required", common.ErrorInvalidArgument)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %w", common.ErrorStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping mongo: %w", common.ErrorStoreUnavailable, err)
	}

	return NewMongoRepositoryManager(client, database), nil
}

// RunMigrations creates the unique indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.refreshTokens.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) RefreshTokens() refreshtokens.Repository {
	return m.refreshTokens
}

// WithinTx runs fn directly. Every repository call is a single-document
// write, which MongoDB applies atomically without a session.
func (m *MongoRepositoryManager) WithinTx(ctx context.Context, fn TxFunc) error {
	return fn(ctx, m.users, m.refreshTokens)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
