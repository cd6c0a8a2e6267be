package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-app/wayfarer/internal/shared"
)

func TestTokenManagerMintAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour, "wayfarer")

	issued := time.Now().Truncate(time.Second)
	token, err := manager.Mint(42, issued)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, issuedAt, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.True(t, issuedAt.Equal(issued), "issued-at must survive the round trip")
}

func TestTokenManagerRejectsWrongSecret(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour, "wayfarer")
	other := NewTokenManager("other-secret", time.Hour, "wayfarer")

	token, err := manager.Mint(1, time.Now())
	require.NoError(t, err)

	_, _, err = other.Verify(token)
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestTokenManagerRejectsGarbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour, "wayfarer")

	_, _, err := manager.Verify("not-a-token")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)

	_, _, err = manager.Verify("")
	assert.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestTokenManagerRejectsExpired(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Minute, "wayfarer")

	token, err := manager.Mint(7, time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, _, err = manager.Verify(token)
	assert.ErrorIs(t, err, shared.ErrExpiredCredential)
}
