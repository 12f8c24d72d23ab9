package keys

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/logging"
)

// PassphraseSuffix is appended to a private key name to locate the generated
// passphrase that encrypts it.
const PassphraseSuffix = ".passphrase"

// PairPaths names where the two halves of a key pair live in Storage.
type PairPaths struct {
	Public  string
	Private string
}

// Config describes the key pairs a Manager owns.
type Config struct {
	Pairs map[Class]PairPaths
	// Passphrase encrypts every private key. When empty a random passphrase
	// is generated per pair and stored next to its private key.
	Passphrase string
	// Bits is the RSA modulus size for new pairs; DefaultBits when zero.
	Bits int
}

// Manager provisions the access and refresh key pairs and serves them from
// an in-memory cache. Keys are immutable once cached.
type Manager struct {
	storage    Storage
	pairs      map[Class]PairPaths
	passphrase string
	bits       int
	logger     logging.Logger

	mu      sync.RWMutex
	private map[Class]*rsa.PrivateKey
	public  map[Class]*rsa.PublicKey
}

// NewManager validates cfg and returns a Manager with an empty cache.
func NewManager(storage Storage, cfg Config, logger logging.Logger) (*Manager, error) {
	for _, class := range Classes {
		p, ok := cfg.Pairs[class]
		if !ok || strings.TrimSpace(p.Public) == "" || strings.TrimSpace(p.Private) == "" {
			return nil, fmt.Errorf("%w: %s key paths are required", common.ErrorInvalidArgument, class)
		}
	}
	bits := cfg.Bits
	if bits == 0 {
		bits = DefaultBits
	}

	return &Manager{
		storage:    storage,
		pairs:      cfg.Pairs,
		passphrase: cfg.Passphrase,
		bits:       bits,
		logger:     logger.With("component", "keys"),
		private:    make(map[Class]*rsa.PrivateKey, len(Classes)),
		public:     make(map[Class]*rsa.PublicKey, len(Classes)),
	}, nil
}

// Provision makes sure both key pairs exist in storage, generating any pair
// whose private key is missing. Nothing is written when all pairs exist.
func (m *Manager) Provision(ctx context.Context) error {
	for _, class := range Classes {
		if err := m.provisionPair(ctx, class); err != nil {
			return fmt.Errorf("provision %s key pair: %w", class, err)
		}
	}
	return nil
}

func (m *Manager) provisionPair(ctx context.Context, class Class) error {
	paths := m.pairs[class]

	privExists, err := m.storage.Exists(ctx, paths.Private)
	if err != nil {
		return err
	}

	if privExists {
		pubExists, err := m.storage.Exists(ctx, paths.Public)
		if err != nil {
			return err
		}
		if pubExists {
			return nil
		}
		return m.restorePublic(ctx, class)
	}

	return m.generatePair(ctx, class)
}

// restorePublic re-derives a missing public half from its private key.
func (m *Manager) restorePublic(ctx context.Context, class Class) error {
	priv, err := m.PrivateKey(ctx, class)
	if err != nil {
		return err
	}
	pubPEM, err := EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}
	if err := m.storage.Write(ctx, m.pairs[class].Public, pubPEM, false); err != nil {
		return err
	}

	m.logger.Warn(ctx, "public key was missing and has been re-derived", "class", class)
	return nil
}

func (m *Manager) generatePair(ctx context.Context, class Class) error {
	paths := m.pairs[class]

	priv, err := GenerateKey(m.bits)
	if err != nil {
		return err
	}

	passphrase := m.passphrase
	if passphrase == "" {
		passphrase, err = common.MakeRandHexString(32)
		if err != nil {
			return fmt.Errorf("generate passphrase: %w", err)
		}
		if err := m.storage.Write(ctx, paths.Private+PassphraseSuffix, []byte(passphrase), true); err != nil {
			return err
		}
	}

	privPEM, err := EncodePrivateKey(priv, passphrase)
	if err != nil {
		return err
	}
	pubPEM, err := EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}

	// The private key gates regeneration, so it is written last.
	if err := m.storage.Write(ctx, paths.Public, pubPEM, false); err != nil {
		return err
	}
	if err := m.storage.Write(ctx, paths.Private, privPEM, true); err != nil {
		return err
	}

	m.mu.Lock()
	m.private[class] = priv
	m.public[class] = &priv.PublicKey
	m.mu.Unlock()

	m.logger.Info(ctx, "key pair generated", "class", class, "bits", m.bits)
	return nil
}

// PrivateKey returns the cached signing key for class, reading it from
// storage on first use.
func (m *Manager) PrivateKey(ctx context.Context, class Class) (*rsa.PrivateKey, error) {
	paths, ok := m.pairs[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown key class %q", common.ErrorInvalidArgument, class)
	}

	m.mu.RLock()
	key := m.private[class]
	m.mu.RUnlock()
	if key != nil {
		return key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key := m.private[class]; key != nil {
		return key, nil
	}

	data, err := m.storage.Read(ctx, paths.Private)
	if err != nil {
		return nil, fmt.Errorf("read %s private key: %w", class, err)
	}

	passphrase := m.passphrase
	if passphrase == "" && IsEncrypted(data) {
		b, err := m.storage.Read(ctx, paths.Private+PassphraseSuffix)
		if err != nil {
			return nil, fmt.Errorf("read %s key passphrase: %w", class, err)
		}
		passphrase = strings.TrimSpace(string(b))
		common.WipeByteArray(b)
	}

	key, err = DecodePrivateKey(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("load %s private key: %w", class, err)
	}

	m.private[class] = key
	return key, nil
}

// PublicKey returns the cached verification key for class, reading it from
// storage on first use.
func (m *Manager) PublicKey(ctx context.Context, class Class) (*rsa.PublicKey, error) {
	paths, ok := m.pairs[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown key class %q", common.ErrorInvalidArgument, class)
	}

	m.mu.RLock()
	key := m.public[class]
	m.mu.RUnlock()
	if key != nil {
		return key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key := m.public[class]; key != nil {
		return key, nil
	}

	data, err := m.storage.Read(ctx, paths.Public)
	if err != nil {
		return nil, fmt.Errorf("read %s public key: %w", class, err)
	}
	key, err = DecodePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("load %s public key: %w", class, err)
	}

	m.public[class] = key
	return key, nil
}

// Warm loads every key into the cache and checks that both halves of each
// pair belong together, so a broken key surfaces at startup.
func (m *Manager) Warm(ctx context.Context) error {
	var errs []error
	for _, class := range Classes {
		priv, err := m.PrivateKey(ctx, class)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pub, err := m.PublicKey(ctx, class)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !priv.PublicKey.Equal(pub) {
			errs = append(errs, fmt.Errorf("%s key pair mismatch: public key does not match private key", class))
		}
	}
	return errors.Join(errs...)
}
