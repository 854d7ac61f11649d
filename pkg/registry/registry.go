package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parkdash/pkg/domain"
)

// OperationFunc runs one operation to completion.
// It receives a context and the dispatch arguments, and returns the payload or error.
type OperationFunc func(ctx context.Context, args domain.Args) (any, error)

type entry struct {
	info domain.OperationInfo
	fn   OperationFunc
}

// Registry manages the operations available by tag.
type Registry struct {
	mu         sync.RWMutex
	operations map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		operations: make(map[string]entry),
	}
}

// Register adds an operation to the registry under info.Tag.
// Registering the same tag twice is a programming error and returns an error.
func (r *Registry) Register(info domain.OperationInfo, fn OperationFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operations[info.Tag]; exists {
		return fmt.Errorf("operation already registered: %s", info.Tag)
	}
	r.operations[info.Tag] = entry{info: info, fn: fn}
	return nil
}

// Execute looks up an operation by tag and runs it.
// Returns domain.ErrUnknownOperation if the tag is not registered.
func (r *Registry) Execute(ctx context.Context, tag string, args domain.Args) (any, error) {
	r.mu.RLock()
	e, ok := r.operations[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, tag)
	}

	return e.fn(ctx, args)
}

// Lookup returns the description of a registered operation.
func (r *Registry) Lookup(tag string) (domain.OperationInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.operations[tag]
	return e.info, ok
}

// List returns every registered operation sorted by tag.
func (r *Registry) List() []domain.OperationInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OperationInfo, 0, len(r.operations))
	for _, e := range r.operations {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}
