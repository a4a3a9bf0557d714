package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService([]byte("test-jwt-secret"), []byte("test-refresh-secret"))
}

func TestIssuePair_ClaimsRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	opdID := uint(7)

	access, refresh, err := svc.IssuePair(42, "budi", "2", &opdID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := svc.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID())
	assert.Equal(t, "budi", claims.Username)
	assert.Equal(t, "2", claims.Level)
	require.NotNil(t, claims.IDAdminOpd)
	assert.Equal(t, uint(7), *claims.IDAdminOpd)
	assert.Nil(t, claims.IDAdminUpt)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(svc.AccessTTL), claims.ExpiresAt.Time, 5*time.Second)

	rClaims, err := svc.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), rClaims.UserID())
	assert.Equal(t, "refresh", rClaims.TokenType)
	assert.NotEmpty(t, rClaims.ID)
}

func TestParse_FamiliesAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	access, refresh, err := svc.IssuePair(1, "sari", "4", nil, nil)
	require.NoError(t, err)

	// a refresh token is signed with the other secret and carries
	// typ=refresh; neither property lets it pass as an access token
	_, err = svc.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	access, _, err := svc.IssuePair(1, "sari", "4", nil, nil)
	require.NoError(t, err)

	other := NewService([]byte("some-other-secret"), []byte("another"))
	_, err = other.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	svc.AccessTTL = -time.Minute
	svc.RefreshTTL = -time.Minute

	access, refresh, err := svc.IssuePair(1, "sari", "4", nil, nil)
	require.NoError(t, err)

	_, err = svc.ParseAccess(access)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = svc.ParseRefresh(refresh)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParse_Garbage(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	_, err := svc.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
