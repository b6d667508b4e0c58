package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-ledger/curation_ledger/internal/config"
	"github.com/curation-ledger/curation_ledger/internal/identity"
)

const curator = "0x52908400098527886E0F7030069857D2E4169EE7"

func newTestService(t *testing.T) (*Service, *identity.Service) {
	t.Helper()
	repo := identity.NewMemoryRepository()
	cfg := config.Config{
		JWTSecret:       "access",
		RefreshSecret:   "refresh",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	return NewService(cfg, repo), identity.NewService(repo)
}

func login(t *testing.T, svc *Service, ids *identity.Service) (identity.Principal, TokenPair) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, ids.Ensure(ctx, identity.Credentials{Address: curator, Secret: "correct horse"}))
	p, err := ids.Authenticate(ctx, identity.Credentials{Address: curator, Secret: "correct horse"})
	require.NoError(t, err)
	pair, err := svc.Login(p)
	require.NoError(t, err)
	return p, pair
}

func TestLoginTokensCarryAccount(t *testing.T) {
	svc, ids := newTestService(t)
	p, pair := login(t, svc, ids)
	assert.EqualValues(t, 60, pair.ExpiresIn)

	claims, err := svc.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p.Address, claims.Account)

	// refresh tokens are signed with a different secret
	_, err = svc.VerifyAccess(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	svc, ids := newTestService(t)
	p, pair := login(t, svc, ids)

	access, exp, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.EqualValues(t, 60, exp)

	claims, err := svc.VerifyAccess(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, p.Address, claims.Account)
}

func TestLogoutInvalidatesTokens(t *testing.T) {
	svc, ids := newTestService(t)
	p, pair := login(t, svc, ids)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, p.Address))

	_, err := svc.VerifyAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalidated)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalidated)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc, ids := newTestService(t)
	_, pair := login(t, svc, ids)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := svc.VerifyAccess(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsTampering(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": curator}, []byte("k"))
	require.NoError(t, err)

	_, err = ParseAndVerifyHS256(token+"x", []byte("k"), time.Now())
	assert.Error(t, err)
	_, err = ParseAndVerifyHS256("a.b", []byte("k"), time.Now())
	assert.ErrorIs(t, err, ErrTokenMalformed)
	_, err = ParseAndVerifyHS256(token, []byte("other"), time.Now())
	assert.ErrorIs(t, err, ErrTokenSignature)
}
