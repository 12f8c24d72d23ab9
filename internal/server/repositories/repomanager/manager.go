// Package repomanager opens the configured credential store and vends its
// repositories. PostgreSQL, MongoDB and an in-memory store are supported.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/identity/internal/server/repositories/users"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// TxFunc receives repositories that share one unit of work.
type TxFunc func(ctx context.Context, u users.Repository, rt refreshtokens.Repository) error

type RepositoryManager interface {
	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	// WithinTx runs fn atomically where the store supports transactions.
	WithinTx(ctx context.Context, fn TxFunc) error
	Close(ctx context.Context) error
}

// Config selects and locates the store.
type Config struct {
	Driver        string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (RepositoryManager, error) {
	switch cfg.Driver {
	case DriverPostgres:
		m, err := OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return m, nil
	case DriverMongo:
		m, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return m, nil
	case DriverMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", common.ErrorInvalidArgument, cfg.Driver)
	}
}
