package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCredentialStoreContract checks the behaviour every CredentialStore backend
// shares: whole-value overwrite, idempotent delete, ErrSessionNotFound on a miss
// and rejection of malformed session ids.
func RunCredentialStoreContract(t *testing.T, store CredentialStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		creds := domain.Credentials{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Role:         "admin",
			UpdatedAt:    time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, sessionID, creds)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, creds.AccessToken, loaded.AccessToken)
		assert.Equal(t, creds.RefreshToken, loaded.RefreshToken)
		assert.Equal(t, creds.Role, loaded.Role)
		assert.True(t, creds.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should survive persistence")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.Credentials{AccessToken: "first"}))
		require.NoError(t, store.Save(ctx, sessionID, domain.Credentials{AccessToken: "second"}))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.AccessToken)
		assert.Empty(t, loaded.RefreshToken, "Save replaces the credentials as a whole")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.Credentials{AccessToken: "access"}))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("Invalid ID", func(t *testing.T) {
		for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
			assert.ErrorIs(t, store.Save(ctx, id, domain.Credentials{AccessToken: "x"}), domain.ErrInvalidSessionID, id)
			_, err := store.Load(ctx, id)
			assert.ErrorIs(t, err, domain.ErrInvalidSessionID, id)
			assert.ErrorIs(t, store.Delete(ctx, id), domain.ErrInvalidSessionID, id)
		}
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.Credentials{AccessToken: "a"}))
		require.NoError(t, store.Save(ctx, id2, domain.Credentials{AccessToken: "b"}))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
