package store

import (
	"log/slog"
	"sync"

	"github.com/aretw0/parkdash/pkg/domain"
)

// hub fans applied changes out to subscribers.
// Sends never block: a subscriber whose buffer is full misses the change.
type hub struct {
	mu     sync.RWMutex
	subs   map[chan domain.Change]struct{}
	closed bool
	logger *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		subs:   make(map[chan domain.Change]struct{}),
		logger: logger,
	}
}

func (h *hub) subscribe(buffer int) (<-chan domain.Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.Change, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *hub) publish(c domain.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
			h.logger.Debug("subscriber buffer full, change dropped", "slice", c.Slice, "operation", c.Event.Operation)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
