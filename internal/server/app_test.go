package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/dmitrijs2005/identity/internal/server/config"
	"github.com/dmitrijs2005/identity/internal/server/keys"
	"github.com/dmitrijs2005/identity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/identity/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := &config.Config{}
	c.LoadDefaults()
	c.PublicAccessKeyPath = filepath.Join(dir, "access.key.pub")
	c.PrivateAccessKeyPath = filepath.Join(dir, "access.key")
	c.PublicRefreshKeyPath = filepath.Join(dir, "refresh.key.pub")
	c.PrivateRefreshKeyPath = filepath.Join(dir, "refresh.key")
	c.KeyBits = 2048
	c.PasswordCost = 4
	c.StoreDriver = repomanager.DriverMemory
	require.NoError(t, c.Validate())
	return c
}

func TestNewApp_MemoryStore(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	app, err := NewApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	defer app.Close(ctx)

	for _, p := range []string{c.PrivateAccessKeyPath, c.PublicAccessKeyPath, c.PrivateRefreshKeyPath, c.PublicRefreshKeyPath} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	_, err = os.Stat(c.PrivateAccessKeyPath + keys.PassphraseSuffix)
	assert.NoError(t, err)

	// admin was seeded before NewApp returned
	res, err := app.Identity().Login(ctx, services.Credentials{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	assert.True(t, app.Identity().ValidateAccessToken(ctx, res.AccessToken).Validated)
}

func TestNewApp_KeysSurviveRestart(t *testing.T) {
	c := testConfig(t)
	c.StoreDriver = repomanager.DriverMemory
	ctx := context.Background()

	first, err := NewApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	res, err := first.Identity().Login(ctx, services.Credentials{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := NewApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	defer second.Close(ctx)

	v := second.Identity().ValidateAccessToken(ctx, res.AccessToken)
	assert.True(t, v.Validated)
}

func TestNewApp_NoAdmin(t *testing.T) {
	c := testConfig(t)
	c.InitAdmin = false
	ctx := context.Background()

	app, err := NewApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	defer app.Close(ctx)

	_, err = app.Identity().Login(ctx, services.Credentials{Username: "admin", Password: "admin"})
	assert.ErrorIs(t, err, common.ErrorAuthFailed)
}

type failingRepos struct {
	*repomanager.MemoryRepositoryManager
	closed bool
}

func (f *failingRepos) RunMigrations(context.Context) error { return errors.New("migration 00002 failed") }

func (f *failingRepos) Close(context.Context) error {
	f.closed = true
	return nil
}

func TestNewApp_MigrationFailureClosesStore(t *testing.T) {
	c := testConfig(t)
	repos := &failingRepos{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}

	orig := openRepositories
	openRepositories = func(context.Context, repomanager.Config) (repomanager.RepositoryManager, error) {
		return repos, nil
	}
	defer func() { openRepositories = orig }()

	_, err := NewApp(context.Background(), c, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 00002 failed")
	assert.True(t, repos.closed)
}

func TestNewApp_StoreOpenFailure(t *testing.T) {
	c := testConfig(t)
	down := errors.Join(common.ErrorStoreUnavailable, errors.New("dial tcp: refused"))

	orig := openRepositories
	openRepositories = func(context.Context, repomanager.Config) (repomanager.RepositoryManager, error) {
		return nil, down
	}
	defer func() { openRepositories = orig }()

	_, err := NewApp(context.Background(), c, logging.Discard())
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
}

func TestNewApp_S3StorageFailure(t *testing.T) {
	c := testConfig(t)
	c.KeyStorage = config.KeyStorageS3

	orig := newS3Storage
	newS3Storage = func(context.Context, keys.S3Config) (keys.Storage, error) {
		return nil, errors.New("no credentials")
	}
	defer func() { newS3Storage = orig }()

	_, err := NewApp(context.Background(), c, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key storage init error")
}

func TestNewApp_UnwritableKeyDir(t *testing.T) {
	c := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	c.PrivateAccessKeyPath = filepath.Join(blocker, "access.key")

	_, err := NewApp(context.Background(), c, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key provisioning error")
}

func TestApp_CloseLogsDriver(t *testing.T) {
	c := testConfig(t)
	c.InitAdmin = false
	ctx := context.Background()

	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	app, err := NewApp(ctx, c, logger)
	require.NoError(t, err)
	require.NoError(t, app.Close(ctx))

	assert.Contains(t, buf.String(), `"msg":"credential store closed"`)
	assert.Contains(t, buf.String(), `"driver":"memory"`)
}

type closeFailingRepos struct {
	*repomanager.MemoryRepositoryManager
}

func (f *closeFailingRepos) Close(context.Context) error {
	return errors.Join(common.ErrorStoreUnavailable, errors.New("connection reset"))
}

func TestApp_CloseFailure(t *testing.T) {
	c := testConfig(t)
	c.InitAdmin = false

	orig := openRepositories
	openRepositories = func(context.Context, repomanager.Config) (repomanager.RepositoryManager, error) {
		return &closeFailingRepos{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}, nil
	}
	defer func() { openRepositories = orig }()

	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)

	err = app.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.Contains(t, err.Error(), "store close error")
}
