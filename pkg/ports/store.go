package ports

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// CredentialStore defines the interface for persisting session credentials.
// It replaces the accessToken, refreshToken and role cookies of a browser session.
type CredentialStore interface {
	// Save persists the credentials for a given session ID.
	Save(ctx context.Context, sessionID string, creds domain.Credentials) error

	// Load retrieves the credentials for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.Credentials, error)

	// Delete removes the credentials for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
