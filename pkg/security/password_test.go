package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashedPasswordVerifies(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery", testPasswordConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := security.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWrongPasswordDoesNotVerify(t *testing.T) {
	hash, err := security.HashPassword("correct horse battery", testPasswordConfig())
	require.NoError(t, err)

	ok, err := security.VerifyPassword("incorrect horse", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	cfg := testPasswordConfig()
	first, err := security.HashPassword("same password", cfg)
	require.NoError(t, err)
	second, err := security.HashPassword("same password", cfg)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestMalformedHashIsRejected(t *testing.T) {
	for _, bad := range []string{"", "not-a-hash", "$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA"} {
		_, err := security.VerifyPassword("whatever", bad)
		require.ErrorIs(t, err, security.ErrInvalidHash)
	}
}

func TestEmptyPasswordCannotBeHashed(t *testing.T) {
	_, err := security.HashPassword("", testPasswordConfig())
	require.Error(t, err)
}

func TestGeneratedOTPIsNumeric(t *testing.T) {
	otp, err := security.GenerateOTP()
	require.NoError(t, err)
	require.Len(t, otp, security.OTPLength)
	for _, r := range otp {
		require.GreaterOrEqual(t, r, '0')
		require.LessOrEqual(t, r, '9')
	}
}
