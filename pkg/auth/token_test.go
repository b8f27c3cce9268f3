package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindahanph/storefront-backend/pkg/config"
	"github.com/tindahanph/storefront-backend/pkg/enums"
)

var testCfg = config.JWTConfig{
	Secret:            "test-secret-key",
	Issuer:            "storefront-test",
	ExpirationMinutes: 15,
}

func TestMintAndParseAccessToken(t *testing.T) {
	customerID := uuid.New()

	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{
		CustomerID: customerID,
		Role:       enums.CustomerRoleAdmin,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testCfg, token)
	require.NoError(t, err)
	assert.Equal(t, customerID, claims.CustomerID)
	assert.Equal(t, enums.CustomerRoleAdmin, claims.Role)
	assert.Equal(t, "storefront-test", claims.Issuer)
}

func TestMintAccessToken_Validation(t *testing.T) {
	payload := AccessTokenPayload{CustomerID: uuid.New(), Role: enums.CustomerRoleCustomer}

	_, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 5}, time.Now(), payload)
	require.Error(t, err)

	_, err = MintAccessToken(config.JWTConfig{Secret: "s", ExpirationMinutes: 5}, time.Now(), payload)
	require.Error(t, err)

	_, err = MintAccessToken(testCfg, time.Now(), AccessTokenPayload{CustomerID: uuid.Nil, Role: enums.CustomerRoleCustomer})
	require.Error(t, err)

	_, err = MintAccessToken(testCfg, time.Now(), AccessTokenPayload{CustomerID: uuid.New(), Role: enums.CustomerRole("owner")})
	require.Error(t, err)
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.CustomerRoleCustomer,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, token)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsWrongSecret(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.CustomerRoleCustomer,
	})
	require.NoError(t, err)

	other := testCfg
	other.Secret = "a-different-secret"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseAccessToken_RejectsWrongIssuer(t *testing.T) {
	minted := testCfg
	minted.Issuer = "someone-else"
	token, err := MintAccessToken(minted, time.Now(), AccessTokenPayload{
		CustomerID: uuid.New(),
		Role:       enums.CustomerRoleCustomer,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testCfg, token)
	assert.Error(t, err)
}
