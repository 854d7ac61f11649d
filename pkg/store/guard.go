package store

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Guard is consulted by every guarded operation.
// Authorize returns the bearer token to use, given the token passed in Args
// (possibly empty). Unauthorized is called when an operation is rejected with
// KindUnauthorized.
type Guard interface {
	Authorize(ctx context.Context, token string) (string, error)
	Unauthorized(ctx context.Context, err *domain.RequestError)
}

// requireToken is the default guard: the caller must pass the token explicitly.
type requireToken struct{}

func (requireToken) Authorize(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}

func (requireToken) Unauthorized(context.Context, *domain.RequestError) {}
