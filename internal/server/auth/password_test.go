package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestHash_RoundTrip(t *testing.T) {
	h := newTestHasher()

	for _, p := range []string{"abcde", "correct horse battery staple", "пароль12", strings.Repeat("a", 72)} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)

		ok, err := h.Verify(p, hash)
		require.NoError(t, err)
		assert.True(t, ok, "password %q must verify against its own hash", p)
	}
}

func TestHash_IsSalted(t *testing.T) {
	h := newTestHasher()

	a, err := h.Hash("abcde")
	require.NoError(t, err)
	b, err := h.Hash("abcde")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHash_TooLong(t *testing.T) {
	_, err := newTestHasher().Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, common.ErrPasswordTooLong)
}

func TestVerify_Mismatch(t *testing.T) {
	h := newTestHasher()
	hash, err := h.Hash("abcde")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
	}{
		{"different password", "abcdf"},
		{"empty password", ""},
		{"prefix", "abcd"},
		{"over 72 bytes", strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.password, hash)
			assert.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerify_CorruptHashFailsClosed(t *testing.T) {
	h := newTestHasher()

	for _, hash := range []string{"", "plaintext", "$2a$10$short", "$9z$10$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvwxyz01234"} {
		ok, err := h.Verify("abcde", hash)
		assert.False(t, ok)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrCorruptCredential), "hash %q: got %v", hash, err)
	}
}
