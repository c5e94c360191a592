package identity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/cloudsell/go-identity"
)

func TestIdentityClaimsAccessors(t *testing.T) {
	accountID := uuid.New()
	now := time.Now()

	claims := &identity.IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:   "a@x.com",
		Purpose: identity.PurposeAccess,
	}

	t.Run("parses the subject as an account id", func(t *testing.T) {
		id, err := claims.AccountID()
		require.NoError(t, err)
		assert.Equal(t, accountID, id)
	})

	t.Run("rejects a non-uuid subject", func(t *testing.T) {
		bad := &identity.IdentityClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "nope"},
		}
		_, err := bad.AccountID()
		assert.Error(t, err)
	})

	t.Run("returns timestamps", func(t *testing.T) {
		assert.WithinDuration(t, now, claims.Issued(), time.Second)
		assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
	})

	t.Run("zero timestamps when absent", func(t *testing.T) {
		empty := &identity.IdentityClaims{}
		assert.True(t, empty.Issued().IsZero())
		assert.True(t, empty.Expires().IsZero())
	})

	t.Run("checks purpose", func(t *testing.T) {
		assert.True(t, claims.HasPurpose(identity.PurposeAccess))
		assert.False(t, claims.HasPurpose(identity.PurposeRefresh))
	})
}

func TestIdentityClaimsWireShape(t *testing.T) {
	t.Run("confirmation omitted when false", func(t *testing.T) {
		claims := &identity.IdentityClaims{Email: "a@x.com"}

		body, err := json.Marshal(claims)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))

		_, present := payload["confirmation"]
		assert.False(t, present)
		assert.Equal(t, "a@x.com", payload["email"])
	})

	t.Run("confirmation present when true", func(t *testing.T) {
		claims := &identity.IdentityClaims{
			Confirmation: true,
			Purpose:      identity.PurposeConfirmation,
		}

		body, err := json.Marshal(claims)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))

		assert.Equal(t, true, payload["confirmation"])
		assert.Equal(t, "confirmation", payload["purpose"])
	})
}
