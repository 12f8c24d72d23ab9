// Package password hashes and verifies credential secrets with bcrypt.
package password

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/identity/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for interactive logins.
const DefaultCost = 10

// Hasher is a bcrypt hasher with a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or DefaultCost when cost is zero.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrorInvalidArgument, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the salted bcrypt hash of plainText.
func (h *Hasher) Hash(plainText string) (string, error) {
	if plainText == "" {
		return "", fmt.Errorf("%w: expected a non-empty string to hash", common.ErrorInvalidArgument)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plainText), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether plainText matches hash. A mismatch is (false, nil);
// an error is returned only for empty or malformed input.
func (h *Hasher) Compare(plainText, hash string) (bool, error) {
	if plainText == "" {
		return false, fmt.Errorf("%w: expected a plain text string to compare", common.ErrorInvalidArgument)
	}
	if hash == "" {
		return false, fmt.Errorf("%w: expected hash to compare to", common.ErrorInvalidArgument)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plainText))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
}
