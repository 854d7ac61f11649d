package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/parkdash/internal/logging"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/aretw0/parkdash/pkg/registry"
)

// ErrClosed is returned by dispatches on a closed store.
var ErrClosed = errors.New("store closed")

// runtime is shared by every slice and thunk of a store.
type runtime struct {
	executor ports.Executor
	guard    Guard
	notifier ports.Notifier
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	policy   SettlePolicy
	now      func() time.Time
	registry *registry.Registry
	hub      *hub

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func (rt *runtime) acquire() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return false
	}
	rt.inflight.Add(1)
	return true
}

func (rt *runtime) release() {
	rt.inflight.Done()
}

func (rt *runtime) notify(ctx context.Context, t domain.Toast) {
	if rt.notifier != nil {
		rt.notifier.Notify(ctx, t)
	}
}

// sliceHandle is the untyped view of a slice.
type sliceHandle interface {
	Name() string
	Snapshot() any
	Resets() []string
	Reset(ctx context.Context, action string) error
}

// Store holds every resource slice of the dashboard.
type Store struct {
	Auth         *AuthSlice
	Users        *UserSlice
	RFIDs        *RFIDSlice
	RFIDLogs     *RFIDLogSlice
	VehicleTypes *VehicleTypeSlice
	Arrivals     *ArrivalSlice
	Parkings     *ParkingSlice
	LogGate      *LogGateSlice

	rt     *runtime
	mu     sync.RWMutex
	slices map[string]sliceHandle
}

// Option configures a Store.
type Option func(*runtime)

// WithGuard sets the auth guard consulted by guarded operations.
// Without one, every guarded dispatch must carry Args.Token.
func WithGuard(g Guard) Option {
	return func(rt *runtime) {
		if g != nil {
			rt.guard = g
		}
	}
}

// WithNotifier sets where failure toasts are sent.
func WithNotifier(n ports.Notifier) Option {
	return func(rt *runtime) { rt.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithLifecycleHooks sets the observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(rt *runtime) { rt.hooks = h }
}

// WithSettlePolicy sets how overlapping dispatches are resolved.
func WithSettlePolicy(p SettlePolicy) Option {
	return func(rt *runtime) { rt.policy = p }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(rt *runtime) {
		if now != nil {
			rt.now = now
		}
	}
}

// New creates a store with every dashboard resource registered.
func New(executor ports.Executor, opts ...Option) *Store {
	rt := &runtime{
		executor: executor,
		guard:    requireToken{},
		logger:   logging.NewNop(),
		policy:   LastDispatchedWins,
		now:      time.Now,
		registry: registry.NewRegistry(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.hub = newHub(rt.logger)

	s := &Store{
		rt:     rt,
		slices: make(map[string]sliceHandle),
	}
	s.Auth = newAuthSlice(s)
	s.Users = newUserSlice(s)
	s.RFIDs = newRFIDSlice(s)
	s.RFIDLogs = newRFIDLogSlice(s)
	s.VehicleTypes = newVehicleTypeSlice(s)
	s.Arrivals = newArrivalSlice(s)
	s.Parkings = newParkingSlice(s)
	s.LogGate = newLogGateSlice(s)
	return s
}

func (s *Store) register(h sliceHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slices[h.Name()]; exists {
		panic(fmt.Sprintf("slice already registered: %s", h.Name()))
	}
	s.slices[h.Name()] = h
}

func (s *Store) slice(name string) (sliceHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.slices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSlice, name)
	}
	return h, nil
}

// Policy returns the settle policy in effect.
func (s *Store) Policy() SettlePolicy { return s.rt.policy }

// Slices lists the slice names, sorted.
func (s *Store) Slices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.slices))
	for name := range s.slices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the current state of a slice as a domain.SliceState value.
func (s *Store) Snapshot(name string) (any, error) {
	h, err := s.slice(name)
	if err != nil {
		return nil, err
	}
	return h.Snapshot(), nil
}

// Resets lists the reset actions of a slice.
func (s *Store) Resets(name string) ([]string, error) {
	h, err := s.slice(name)
	if err != nil {
		return nil, err
	}
	return h.Resets(), nil
}

// Reset applies a named reset action to a slice.
func (s *Store) Reset(ctx context.Context, name, action string) error {
	h, err := s.slice(name)
	if err != nil {
		return err
	}
	return h.Reset(ctx, action)
}

// Operations lists every registered operation, sorted by tag.
func (s *Store) Operations() []domain.OperationInfo {
	return s.rt.registry.List()
}

// Dispatch runs an operation by tag and waits for it to settle.
func (s *Store) Dispatch(ctx context.Context, tag string, args domain.Args) (any, error) {
	return s.rt.registry.Execute(ctx, tag, args)
}

// Subscribe returns a channel receiving every applied change, and a cancel function.
// The channel is closed on cancel or when the store closes.
func (s *Store) Subscribe(buffer int) (<-chan domain.Change, func()) {
	return s.rt.hub.subscribe(buffer)
}

// Close stops accepting dispatches and waits for in-flight operations to settle,
// or for ctx to be done. Subscriber channels are closed afterwards.
func (s *Store) Close(ctx context.Context) error {
	s.rt.mu.Lock()
	s.rt.closed = true
	s.rt.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.rt.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.rt.hub.close()
		return nil
	case <-ctx.Done():
		s.rt.hub.close()
		return fmt.Errorf("in-flight operations did not settle: %w", ctx.Err())
	}
}

var _ ports.Dispatcher = (*Store)(nil)
