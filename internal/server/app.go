// Package server wires the identity core together: key storage and key
// manager, credential store, password hasher, token service and the identity
// service. NewApp performs the whole startup sequence and returns only when
// the core is ready to serve.
package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/dmitrijs2005/identity/internal/server/auth"
	"github.com/dmitrijs2005/identity/internal/server/config"
	"github.com/dmitrijs2005/identity/internal/server/credentials"
	"github.com/dmitrijs2005/identity/internal/server/keys"
	"github.com/dmitrijs2005/identity/internal/server/password"
	"github.com/dmitrijs2005/identity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/identity/internal/server/services"
)

const defaultAdminPassword = "admin"

type App struct {
	config   *config.Config
	logger   logging.Logger
	keys     *keys.Manager
	repos    repomanager.RepositoryManager
	identity *services.IdentityService
}

// Seams for tests.
var (
	newS3Storage = func(ctx context.Context, c keys.S3Config) (keys.Storage, error) {
		return keys.NewS3Storage(ctx, c)
	}
	openRepositories = repomanager.Open
)

// NewApp provisions keys, opens and migrates the credential store and, when
// configured, seeds the admin user. Any failure is fatal for startup.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	km, err := newKeyManager(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	repos, err := openRepositories(ctx, repomanager.Config{
		Driver:        c.StoreDriver,
		DatabaseDSN:   c.DatabaseDSN,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	logger.Info(ctx, "credential store connected", "driver", c.StoreDriver)

	app, err := newApp(ctx, c, logger, km, repos)
	if err != nil {
		if cerr := repos.Close(ctx); cerr != nil {
			logger.Warn(ctx, "failed to close credential store", "error", cerr)
		}
		return nil, err
	}

	logger.Info(ctx, "identity core ready")
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, km *keys.Manager, repos repomanager.RepositoryManager) (*App, error) {
	if err := repos.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := password.NewHasher(c.PasswordCost)
	if err != nil {
		return nil, err
	}

	store := credentials.NewStore(repos, logger)
	tokens := auth.NewTokenService(km, c.AccessTokenTTL, c.RefreshTokenTTL)
	identity := services.NewIdentityService(store, hasher, tokens, logger)

	if c.InitAdmin {
		if c.AdminPassword == defaultAdminPassword {
			logger.Warn(ctx, "admin user uses the default password")
		}
		if _, err := identity.SeedAdmin(ctx, c.AdminPassword); err != nil {
			return nil, fmt.Errorf("admin seed error: %w", err)
		}
	}

	return &App{config: c, logger: logger, keys: km, repos: repos, identity: identity}, nil
}

func newKeyManager(ctx context.Context, c *config.Config, logger logging.Logger) (*keys.Manager, error) {
	var storage keys.Storage
	switch c.KeyStorage {
	case config.KeyStorageS3:
		s, err := newS3Storage(ctx, keys.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("key storage init error: %w", err)
		}
		storage = s
	default:
		storage = keys.NewFileStorage()
	}

	km, err := keys.NewManager(storage, keys.Config{
		Pairs: map[keys.Class]keys.PairPaths{
			keys.Access:  {Public: c.PublicAccessKeyPath, Private: c.PrivateAccessKeyPath},
			keys.Refresh: {Public: c.PublicRefreshKeyPath, Private: c.PrivateRefreshKeyPath},
		},
		Passphrase: c.KeyPassphrase,
		Bits:       c.KeyBits,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := km.Provision(ctx); err != nil {
		return nil, fmt.Errorf("key provisioning error: %w", err)
	}
	if err := km.Warm(ctx); err != nil {
		return nil, fmt.Errorf("key load error: %w", err)
	}

	return km, nil
}

// Identity returns the identity service.
func (app *App) Identity() *services.IdentityService {
	return app.identity
}

// Close releases the credential store.
func (app *App) Close(ctx context.Context) error {
	if err := app.repos.Close(ctx); err != nil {
		return fmt.Errorf("store close error: %w", err)
	}
	app.logger.Info(ctx, "credential store closed", "driver", app.config.StoreDriver)
	return nil
}
