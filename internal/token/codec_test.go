package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/token"
)

func testConfig(accessTTL time.Duration) token.Config {
	return token.Config{
		Issuer:        "az.schedule.com",
		AccessSecret:  []byte("access-secret--access-secret-access-secret-access-secret-64bytes"),
		AccessTTL:     accessTTL,
		RefreshSecret: []byte("refresh-secret--refresh-secret-refresh-secret-refresh-secret-64b"),
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	codec, err := token.NewCodec(testConfig(time.Minute))
	require.NoError(t, err)

	raw, err := codec.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := codec.Verify(raw, token.KindAccess)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, int64(42), claims.AccountID)
	require.Equal(t, domain.RoleUser, claims.Scope)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	codec, err := token.NewCodec(testConfig(time.Minute))
	require.NoError(t, err)

	refresh, err := codec.Issue("alice", 42, domain.RoleUser, token.KindRefresh)
	require.NoError(t, err)

	_, err = codec.Verify(refresh, token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestVerifyReportsExpiry(t *testing.T) {
	codec, err := token.NewCodec(testConfig(-time.Minute))
	require.NoError(t, err)

	raw, err := codec.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)

	_, err = codec.Verify(raw, token.KindAccess)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifySignatureTakesPrecedenceOverExpiry(t *testing.T) {
	issuing, err := token.NewCodec(testConfig(-time.Minute))
	require.NoError(t, err)

	// Expired token signed with a different secret: verification must report
	// the signature failure, not the expiry.
	raw, err := issuing.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)

	other := testConfig(time.Minute)
	other.AccessSecret = []byte("another-secret--another-secret-another-secret-another-secret-64b")
	verifying, err := token.NewCodec(other)
	require.NoError(t, err)

	_, err = verifying.Verify(raw, token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidSignature)
	require.NotErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	codec, err := token.NewCodec(testConfig(time.Minute))
	require.NoError(t, err)

	raw, err := codec.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)

	tampered := raw[:len(raw)-2] + "xx"
	_, err = codec.Verify(tampered, token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidSignature)
}

func TestIssuedTokensCarryFreshTokenIDs(t *testing.T) {
	codec, err := token.NewCodec(testConfig(time.Minute))
	require.NoError(t, err)

	first, err := codec.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)
	second, err := codec.Issue("alice", 42, domain.RoleUser, token.KindAccess)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	a, err := codec.Verify(first, token.KindAccess)
	require.NoError(t, err)
	b, err := codec.Verify(second, token.KindAccess)
	require.NoError(t, err)
	require.NotEqual(t, a.TokenID, b.TokenID)
}
