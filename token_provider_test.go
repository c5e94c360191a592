package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/cloudsell/go-identity"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testKeyPair(t *testing.T) *identity.KeyPair {
	t.Helper()

	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate rsa key: %v", err)
		}
		testKey = key
	})

	return &identity.KeyPair{
		Private: testKey,
		Public:  &testKey.PublicKey,
	}
}

func newTestProvider(t *testing.T) *identity.RSATokenProvider {
	t.Helper()

	cfg := identity.DefaultConfig(testKeyPair(t))

	provider, err := identity.NewTokenProvider(cfg)
	require.NoError(t, err)

	return provider
}

func TestNewTokenProvider(t *testing.T) {
	t.Run("requires a key pair", func(t *testing.T) {
		_, err := identity.NewTokenProvider(identity.Config{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		})
		assert.Error(t, err)
	})

	t.Run("requires positive lifetimes", func(t *testing.T) {
		cfg := identity.DefaultConfig(testKeyPair(t))
		cfg.AccessTokenTTL = 0

		_, err := identity.NewTokenProvider(cfg)
		assert.Error(t, err)
	})

	t.Run("constructs from a complete config", func(t *testing.T) {
		provider := newTestProvider(t)
		assert.NotNil(t, provider)
	})
}

func TestTokenProviderRoundTrip(t *testing.T) {
	provider := newTestProvider(t)
	accountID := uuid.New()
	email := "a@x.com"

	t.Run("access token decodes to the same claims", func(t *testing.T) {
		token, err := provider.EncodeAccess(accountID, email)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := provider.Decode(token)
		require.NoError(t, err)

		assert.Equal(t, accountID.String(), claims.Subject)
		assert.Equal(t, email, claims.Email)
		assert.False(t, claims.Confirmation)
		assert.Equal(t, identity.PurposeAccess, claims.Purpose)
		assert.WithinDuration(t, time.Now(), claims.Issued(), 5*time.Second)
		assert.WithinDuration(t, time.Now().Add(60*time.Minute), claims.Expires(), 5*time.Second)

		id, err := claims.AccountID()
		require.NoError(t, err)
		assert.Equal(t, accountID, id)
	})

	t.Run("refresh token decodes to the same claims", func(t *testing.T) {
		token, err := provider.EncodeRefresh(accountID, email)
		require.NoError(t, err)

		claims, err := provider.Decode(token)
		require.NoError(t, err)

		assert.Equal(t, accountID.String(), claims.Subject)
		assert.Equal(t, email, claims.Email)
		assert.Equal(t, identity.PurposeRefresh, claims.Purpose)
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.Expires(), 5*time.Second)
	})

	t.Run("confirmation token carries flag, purpose, and override lifetime", func(t *testing.T) {
		token, err := provider.EncodeRefresh(accountID, email,
			identity.WithLifetime(24*time.Hour),
			identity.WithConfirmation(),
		)
		require.NoError(t, err)

		claims, err := provider.Decode(token)
		require.NoError(t, err)

		assert.True(t, claims.Confirmation)
		assert.Equal(t, identity.PurposeConfirmation, claims.Purpose)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), 5*time.Second)
	})
}

func TestTokenProviderDecodeFailures(t *testing.T) {
	provider := newTestProvider(t)
	accountID := uuid.New()

	t.Run("expired token fails with the invalid token kind", func(t *testing.T) {
		token, err := provider.EncodeRefresh(accountID, "a@x.com",
			identity.WithLifetime(-time.Minute),
		)
		require.NoError(t, err)

		_, err = provider.Decode(token)
		require.Error(t, err)
		assert.True(t, identity.IsInvalidToken(err))
	})

	t.Run("tampered token fails with the invalid token kind", func(t *testing.T) {
		token, err := provider.EncodeAccess(accountID, "a@x.com")
		require.NoError(t, err)

		// flip one byte of the signature
		raw := []byte(token)
		last := len(raw) - 1
		if raw[last] == 'a' {
			raw[last] = 'b'
		} else {
			raw[last] = 'a'
		}

		_, err = provider.Decode(string(raw))
		require.Error(t, err)
		assert.True(t, identity.IsInvalidToken(err))
	})

	t.Run("malformed token fails with the invalid token kind", func(t *testing.T) {
		_, err := provider.Decode("not-a-token")
		require.Error(t, err)
		assert.True(t, identity.IsInvalidToken(err))
	})

	t.Run("token signed by a different key fails", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		cfg := identity.DefaultConfig(&identity.KeyPair{
			Private: other,
			Public:  &other.PublicKey,
		})
		otherProvider, err := identity.NewTokenProvider(cfg)
		require.NoError(t, err)

		token, err := otherProvider.EncodeAccess(accountID, "a@x.com")
		require.NoError(t, err)

		_, err = provider.Decode(token)
		require.Error(t, err)
		assert.True(t, identity.IsInvalidToken(err))
	})

	t.Run("decode does not distinguish originating encoder", func(t *testing.T) {
		access, err := provider.EncodeAccess(accountID, "a@x.com")
		require.NoError(t, err)
		refresh, err := provider.EncodeRefresh(accountID, "a@x.com")
		require.NoError(t, err)

		for _, token := range []string{access, refresh} {
			claims, err := provider.Decode(token)
			require.NoError(t, err)
			require.True(t, strings.Count(token, ".") == 2)
			assert.Equal(t, accountID.String(), claims.Subject)
		}
	})
}
