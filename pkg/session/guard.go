package session

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Guard is the auth guard of one session. It satisfies store.Guard.
type Guard struct {
	manager   *Manager
	sessionID string
}

// SessionID returns the guarded session.
func (g *Guard) SessionID() string { return g.sessionID }

// Authorize returns token when set, otherwise the session's stored bearer token.
func (g *Guard) Authorize(ctx context.Context, token string) (string, error) {
	if token != "" {
		return token, nil
	}
	return g.manager.Token(ctx, g.sessionID)
}

// Unauthorized handles a 401. With a refresher configured it tries one refresh
// first and keeps the session when that succeeds. The rejected operation is not
// retried.
func (g *Guard) Unauthorized(ctx context.Context, cause *domain.RequestError) {
	m := g.manager
	log := m.logger.With("session_id", g.sessionID, "operation", cause.Operation)

	if m.getRefresher() != nil {
		_, err := m.Refresh(ctx, g.sessionID)
		if err == nil {
			log.InfoContext(ctx, "credentials refreshed after unauthorized response")
			return
		}
		log.DebugContext(ctx, "refresh failed", "err", err)
	}

	if err := m.Clear(ctx, g.sessionID); err != nil {
		log.WarnContext(ctx, "failed to clear credentials", "err", err)
	} else {
		log.InfoContext(ctx, "credentials cleared")
	}
	if m.onUnauthorized != nil {
		m.onUnauthorized(ctx, g.sessionID, cause)
	}
}
