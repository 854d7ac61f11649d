package ports

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Executor performs the HTTP call of an operation.
// It returns the reply of a 2xx response. Any other outcome is returned as a
// *domain.RequestError carrying the extracted message.
type Executor interface {
	Execute(ctx context.Context, call domain.Call) (*domain.Reply, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, call domain.Call) (*domain.Reply, error)

func (f ExecutorFunc) Execute(ctx context.Context, call domain.Call) (*domain.Reply, error) {
	return f(ctx, call)
}
