package ports

import (
	"context"

	"github.com/aretw0/parkdash/pkg/domain"
)

// Dispatcher is the surface external adapters (HTTP gateway, MCP) drive the store through.
type Dispatcher interface {
	// Operations lists every registered operation, sorted by tag.
	Operations() []domain.OperationInfo

	// Dispatch runs the operation with the given tag and waits for it to settle.
	// Returns domain.ErrUnknownOperation for unregistered tags.
	Dispatch(ctx context.Context, tag string, args domain.Args) (any, error)

	// Slices lists the slice names, sorted.
	Slices() []string

	// Snapshot returns the current state of a slice.
	// Returns domain.ErrUnknownSlice for unregistered names.
	Snapshot(slice string) (any, error)

	// Reset applies a named reset action to a slice.
	Reset(ctx context.Context, slice, action string) error

	// Subscribe returns a channel of applied changes and a cancel function.
	Subscribe(buffer int) (<-chan domain.Change, func())
}
