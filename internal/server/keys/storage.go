package keys

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/filex"
)

// Storage persists PEM-encoded key material under caller-chosen names.
// Secret entries (private keys, passphrases) must be written with
// restrictive protection.
type Storage interface {
	Exists(ctx context.Context, name string) (bool, error)
	// Read returns common.ErrorNotFound when name is absent.
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte, secret bool) error
}

const (
	secretFileMode = 0o600
	publicFileMode = 0o644
	keyDirMode     = 0o700
)

// FileStorage stores keys as files; names are filesystem paths.
type FileStorage struct{}

func NewFileStorage() *FileStorage {
	return &FileStorage{}
}

func (s *FileStorage) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}

func (s *FileStorage) Read(_ context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func (s *FileStorage) Write(_ context.Context, name string, data []byte, secret bool) error {
	if err := filex.EnsureParentDir(name, keyDirMode); err != nil {
		return err
	}
	var mode os.FileMode = publicFileMode
	if secret {
		mode = secretFileMode
	}
	return filex.WriteFileAtomic(name, data, mode)
}
