package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/youmark/pkcs8"
)

const (
	pemTypePublic    = "PUBLIC KEY"
	pemTypeEncrypted = "ENCRYPTED PRIVATE KEY"
	pemTypePKCS8     = "PRIVATE KEY"
	pemTypePKCS1     = "RSA PRIVATE KEY"
)

// DefaultBits is the modulus size of generated key pairs.
const DefaultBits = 4096

// ErrPassphraseRequired is returned when an encrypted private key is read
// without a passphrase.
var ErrPassphraseRequired = errors.New("passphrase required for encrypted private key")

// PKCS#8 with PBKDF2-SHA256 and AES-256-CBC.
var encryptionOpts = &pkcs8.Opts{
	Cipher: pkcs8.AES256CBC,
	KDFOpts: pkcs8.PBKDF2Opts{
		SaltSize:       16,
		IterationCount: 10000,
		HMACHash:       crypto.SHA256,
	},
}

// GenerateKey creates a new RSA private key of the given size.
func GenerateKey(bits int) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return key, nil
}

// EncodePrivateKey encrypts key under passphrase and returns it as an
// "ENCRYPTED PRIVATE KEY" PEM block.
func EncodePrivateKey(key *rsa.PrivateKey, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	der, err := pkcs8.MarshalPrivateKey(key, []byte(passphrase), encryptionOpts)
	if err != nil {
		return nil, fmt.Errorf("encrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeEncrypted, Bytes: der}), nil
}

// DecodePrivateKey parses a PEM private key. Encrypted PKCS#8 needs
// passphrase; plain PKCS#8 and PKCS#1 blocks ignore it.
func DecodePrivateKey(data []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	switch block.Type {
	case pemTypeEncrypted:
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("decrypt private key: %w", err)
		}
		return key, nil
	case pemTypePKCS8:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, want RSA", parsed)
		}
		return key, nil
	case pemTypePKCS1:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
}

// IsEncrypted reports whether data holds an encrypted PKCS#8 PEM block.
func IsEncrypted(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil && block.Type == pemTypeEncrypted
}

// EncodePublicKey returns key as a PKIX "PUBLIC KEY" PEM block.
func EncodePublicKey(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der}), nil
}

// DecodePublicKey parses a PKIX "PUBLIC KEY" PEM block holding an RSA key.
func DecodePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != pemTypePublic {
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, want RSA", parsed)
	}
	return key, nil
}
