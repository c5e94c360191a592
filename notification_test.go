package identity_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/cloudsell/go-identity"
)

func dispatcherConfig(t *testing.T) identity.Config {
	t.Helper()

	cfg := identity.DefaultConfig(testKeyPair(t))
	cfg.ConfirmationTemplate = "confirm-email"
	cfg.ResetTemplate = "reset-password"

	return cfg
}

func TestEmailDispatcher(t *testing.T) {
	profile := &identity.Profile{
		ID:    uuid.New(),
		Name:  "Alice",
		Email: "a@x.com",
	}

	t.Run("confirmation job carries the expected wire shape", func(t *testing.T) {
		var published [][]byte
		capture := identity.PublisherFunc(func(_ context.Context, body []byte) error {
			published = append(published, body)
			return nil
		})

		dispatcher := identity.NewEmailDispatcher(capture, dispatcherConfig(t))

		err := dispatcher.SendConfirmation(context.Background(), profile, "signed-token")
		require.NoError(t, err)
		require.Len(t, published, 1)

		var job map[string]any
		require.NoError(t, json.Unmarshal(published[0], &job))

		assert.Equal(t, "confirm-email", job["template_id"])
		assert.Equal(t, profile.ID.String(), job["user_id"])
		assert.Equal(t, "a@x.com", job["email"])
		assert.Equal(t, identity.JobTypeEmail, job["type"])

		extra, ok := job["extra_data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "signed-token", extra["token"])
		assert.Equal(t, "Alice", extra["name"])
	})

	t.Run("password reset uses the reset template", func(t *testing.T) {
		var published [][]byte
		capture := identity.PublisherFunc(func(_ context.Context, body []byte) error {
			published = append(published, body)
			return nil
		})

		dispatcher := identity.NewEmailDispatcher(capture, dispatcherConfig(t))

		err := dispatcher.SendPasswordReset(context.Background(), profile, "signed-token")
		require.NoError(t, err)
		require.Len(t, published, 1)

		var job identity.NotificationJob
		require.NoError(t, json.Unmarshal(published[0], &job))
		assert.Equal(t, "reset-password", job.TemplateID)
	})

	t.Run("publisher failure propagates wrapped", func(t *testing.T) {
		failing := identity.PublisherFunc(func(_ context.Context, _ []byte) error {
			return errors.New("broker unavailable", errors.CategoryOperation)
		})

		dispatcher := identity.NewEmailDispatcher(failing, dispatcherConfig(t))

		err := dispatcher.SendConfirmation(context.Background(), profile, "signed-token")
		assert.Error(t, err)
	})

	t.Run("nil profile is rejected before any publish", func(t *testing.T) {
		calls := 0
		counting := identity.PublisherFunc(func(_ context.Context, _ []byte) error {
			calls++
			return nil
		})

		dispatcher := identity.NewEmailDispatcher(counting, dispatcherConfig(t))

		err := dispatcher.SendConfirmation(context.Background(), nil, "signed-token")
		assert.Error(t, err)
		assert.Zero(t, calls)
	})
}
