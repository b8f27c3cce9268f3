package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindahanph/storefront-backend/pkg/config"
)

var testCfg = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", testCfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	first, err := HashPassword("correct-horse", testCfg)
	require.NoError(t, err)
	second, err := HashPassword("correct-horse", testCfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPassword("", testCfg)
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "plaintext", "$argon2id$v=19$broken"} {
		_, err := VerifyPassword("whatever", encoded)
		assert.Error(t, err, "encoded %q", encoded)
	}
}
