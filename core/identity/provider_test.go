package identity_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/identity"
)

var signingKey = []byte("0123456789abcdef0123456789abcdef")

func TestNewJWTProvider(t *testing.T) {
	t.Parallel()

	_, err := identity.NewJWTProvider(nil)
	assert.ErrorIs(t, err, identity.ErrEmptySigningKey)

	_, err = identity.NewJWTProviderFromConfig(identity.Config{})
	assert.ErrorIs(t, err, identity.ErrEmptySigningKey)

	p, err := identity.NewJWTProviderFromConfig(identity.Config{SigningKey: "secret", TTL: time.Hour, Issuer: "tests"})
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestJWTProvider_RoundTrip(t *testing.T) {
	t.Parallel()

	p, err := identity.NewJWTProvider(signingKey)
	require.NoError(t, err)
	ctx := context.Background()

	token, err := p.Encode(ctx, "alice", []string{"Editor", "Admin"})
	require.NoError(t, err)

	ec := p.Decode(ctx, token)
	assert.Equal(t, "alice", ec.Username())
	assert.Equal(t, []string{"Editor", "Admin"}, ec.Roles())
	assert.True(t, ec.IsAuthenticated())
	assert.False(t, ec.IsLocal())

	claims, err := p.Parse(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt, time.Minute)

	_, err = p.Encode(ctx, "", nil)
	assert.ErrorIs(t, err, identity.ErrEmptyUsername)
}

func TestJWTProvider_DecodeSoftFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }

	p, err := identity.NewJWTProvider(signingKey, identity.WithTTL(time.Minute), identity.WithClock(clock))
	require.NoError(t, err)

	valid, err := p.Encode(ctx, "bob", nil)
	require.NoError(t, err)

	other, err := identity.NewJWTProvider([]byte("another-signing-key"))
	require.NoError(t, err)
	foreign, err := other.Encode(ctx, "mallory", []string{"Admin"})
	require.NoError(t, err)

	otherIssuer, err := identity.NewJWTProvider(signingKey, identity.WithIssuer("elsewhere"))
	require.NoError(t, err)
	wrongIssuer, err := otherIssuer.Encode(ctx, "eve", nil)
	require.NoError(t, err)

	validParts := strings.Split(valid, ".")
	foreignParts := strings.Split(foreign, ".")
	tampered := validParts[0] + "." + foreignParts[1] + "." + validParts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not-a-jwt"},
		{"tampered", tampered},
		{"foreign key", foreign},
		{"wrong issuer", wrongIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ec := p.Decode(ctx, tt.token)
			assert.False(t, ec.IsAuthenticated())
			assert.Empty(t, ec.Roles())
		})
	}

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		later, err := identity.NewJWTProvider(signingKey,
			identity.WithClock(func() time.Time { return now.Add(2 * time.Minute) }))
		require.NoError(t, err)

		assert.False(t, later.Decode(ctx, valid).IsAuthenticated())
		_, err = later.Parse(ctx, valid)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})
}

func TestJWTProvider_Revoke(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	list := identity.NewMemoryRevocationList()
	p, err := identity.NewJWTProvider(signingKey, identity.WithRevocationStore(list))
	require.NoError(t, err)

	token, err := p.Encode(ctx, "alice", nil)
	require.NoError(t, err)
	kept, err := p.Encode(ctx, "alice", nil)
	require.NoError(t, err)

	require.NoError(t, p.Revoke(ctx, token))

	assert.False(t, p.Decode(ctx, token).IsAuthenticated())
	_, err = p.Parse(ctx, token)
	assert.ErrorIs(t, err, identity.ErrTokenRevoked)

	assert.Equal(t, "alice", p.Decode(ctx, kept).Username())

	assert.NoError(t, p.Revoke(ctx, "garbage"))
}

type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	return m.Called(ctx, id, ttl).Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func TestJWTProvider_RevocationStoreFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &mockRevocationStore{}
	store.On("IsRevoked", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	store.On("Revoke", mock.Anything, mock.Anything, mock.AnythingOfType("time.Duration")).Return(errors.New("redis down"))

	p, err := identity.NewJWTProvider(signingKey, identity.WithRevocationStore(store))
	require.NoError(t, err)

	token, err := p.Encode(ctx, "alice", nil)
	require.NoError(t, err)

	assert.False(t, p.Decode(ctx, token).IsAuthenticated())
	assert.ErrorContains(t, p.Revoke(ctx, token), "redis down")
	store.AssertExpectations(t)
}

func TestMemoryRevocationList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	list := identity.NewMemoryRevocationList()

	require.NoError(t, list.Revoke(ctx, "short", 20*time.Millisecond))
	require.NoError(t, list.Revoke(ctx, "ignored", 0))

	revoked, err := list.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "ignored")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.Eventually(t, func() bool {
		revoked, _ := list.IsRevoked(ctx, "short")
		return !revoked
	}, time.Second, 5*time.Millisecond)
}
