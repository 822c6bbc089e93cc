package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/backend/pkg/token"
)

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := token.NewSigner("", "issuer", time.Hour)
	require.Error(t, err)
}

func TestNewSignerDefaultsValidity(t *testing.T) {
	signer, err := token.NewSigner("secret", "issuer", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, signer.Validity())
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	signer, err := token.NewSigner("secret", "issuer", time.Hour)
	require.NoError(t, err)

	now := time.Now()
	signed, expiresAt, err := signer.Issue("user-1", "bob", []string{"Customer", "Seller"}, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := signer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, "issuer", claims.Issuer)
	assert.Equal(t, []string{"Customer", "Seller"}, claims.Roles)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseExpired(t *testing.T) {
	signer, err := token.NewSigner("secret", "issuer", time.Hour)
	require.NoError(t, err)

	signed, _, err := signer.Issue("user-1", "bob", nil, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = signer.Parse(signed)
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	ours, err := token.NewSigner("secret", "issuer", time.Hour)
	require.NoError(t, err)
	theirs, err := token.NewSigner("other-secret", "issuer", time.Hour)
	require.NoError(t, err)

	signed, _, err := theirs.Issue("user-1", "bob", nil, time.Now())
	require.NoError(t, err)

	_, err = ours.Parse(signed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, token.ErrExpired)
}

func TestParseRejectsGarbage(t *testing.T) {
	signer, err := token.NewSigner("secret", "issuer", time.Hour)
	require.NoError(t, err)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		_, err := signer.Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
