package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewHasher_Cost(t *testing.T) {
	h, err := NewHasher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, h.cost)

	_, err = NewHasher(bcrypt.MaxCost + 1)
	assert.True(t, errors.Is(err, common.ErrorInvalidArgument))

	_, err = NewHasher(2)
	assert.True(t, errors.Is(err, common.ErrorInvalidArgument))
}

func TestHash_UsesConfiguredCost(t *testing.T) {
	h, err := NewHasher(DefaultCost)
	require.NoError(t, err)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestHashCompare_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, p := range []string{"secret123", "a", "пароль", strings.Repeat("x", 72)} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)

		ok, err := h.Compare(p, hash)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCompare_MismatchIsNotAnError(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)

	ok, err := h.Compare("secret124", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_RejectsInvalidInput(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash("")
	assert.True(t, errors.Is(err, common.ErrorInvalidArgument))

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.True(t, errors.Is(err, common.ErrorInvalidArgument))
}

func TestCompare_RejectsInvalidInput(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name  string
		plain string
		hash  string
	}{
		{name: "empty plain text", plain: "", hash: "$2a$04$abcdefghijklmnopqrstuv"},
		{name: "empty hash", plain: "secret123", hash: ""},
		{name: "malformed hash", plain: "secret123", hash: "not-a-bcrypt-hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Compare(tt.plain, tt.hash)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, common.ErrorInvalidArgument), "got %v", err)
		})
	}
}
