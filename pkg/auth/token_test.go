package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                  "test-secret",
		Issuer:                  "koor-test",
		AccessTokenTTLMinutes:   60,
		RefreshTokenTTLMinutes:  43200,
	}
}

func testPayload() TokenPayload {
	return TokenPayload{
		UserID:    uuid.New(),
		SessionID: uuid.New(),
		Role:      enums.RoleJobSeeker,
	}
}

func TestMintAndParseToken(t *testing.T) {
	cfg := testJWTConfig()
	payload := testPayload()
	now := time.Now()

	signed, err := MintToken(cfg, now, TokenTypeAccess, payload)
	require.NoError(t, err)

	claims, err := ParseToken(cfg, signed)
	require.NoError(t, err)
	require.Equal(t, payload.UserID, claims.UserID)
	require.Equal(t, payload.SessionID, claims.SessionID)
	require.Equal(t, enums.RoleJobSeeker, claims.Role)
	require.Equal(t, TokenTypeAccess, claims.TokenType)
	require.Equal(t, payload.SessionID.String(), claims.ID)
}

func TestMintTokenValidation(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	_, err := MintToken(config.JWTConfig{}, now, TokenTypeAccess, testPayload())
	require.Error(t, err)

	payload := testPayload()
	payload.Role = enums.Role("owner")
	_, err = MintToken(cfg, now, TokenTypeAccess, payload)
	require.Error(t, err)

	payload = testPayload()
	payload.SessionID = uuid.Nil
	_, err = MintToken(cfg, now, TokenTypeAccess, payload)
	require.Error(t, err)

	_, err = MintToken(cfg, now, TokenType("id"), testPayload())
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintToken(cfg, time.Now().Add(-2*time.Hour), TokenTypeAccess, testPayload())
	require.NoError(t, err)

	_, err = ParseToken(cfg, signed)
	require.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintToken(cfg, time.Now(), TokenTypeRefresh, testPayload())
	require.NoError(t, err)

	other := cfg
	other.Secret = "another-secret"
	_, err = ParseToken(other, signed)
	require.Error(t, err)
}
