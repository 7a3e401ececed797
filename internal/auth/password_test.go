package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Cost 4 is bcrypt's minimum; it keeps the tests fast.
func newTestPasswordService() *PasswordService {
	return NewPasswordService(bcrypt.MinCost)
}

func TestNewPasswordServiceFallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, DefaultCost, NewPasswordService(0).cost)
	assert.Equal(t, DefaultCost, NewPasswordService(99).cost)
	assert.Equal(t, 4, newTestPasswordService().cost)
}

func TestHash(t *testing.T) {
	ps := newTestPasswordService()

	h1, err := ps.Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h1, "$2a$"), "bcrypt hash, got %q", h1)

	h2, err := ps.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "salted hashes differ")
}

func TestHashLengthLimit(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)

	_, err = ps.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("s3cret-password")
	require.NoError(t, err)

	assert.NoError(t, ps.Verify(hash, "s3cret-password"))
	assert.ErrorIs(t, ps.Verify(hash, "wrong-password"), ErrPasswordMismatch)
	assert.ErrorIs(t, ps.Verify(hash, ""), ErrPasswordMismatch)

	err = ps.Verify("not-a-bcrypt-hash", "whatever")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
