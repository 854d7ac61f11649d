package ports

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Notifier shows transient notifications to the user.
// Implementations must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, toast domain.Toast)
}
