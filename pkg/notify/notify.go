// Package notify provides ports.Notifier implementations: structured logs,
// coloured terminal lines and an in-memory recorder.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"github.com/muesli/termenv"
)

// Func adapts a function to ports.Notifier.
type Func func(ctx context.Context, toast domain.Toast)

// Notify calls f.
func (f Func) Notify(ctx context.Context, toast domain.Toast) {
	f(ctx, toast)
}

// Discard drops every toast.
var Discard ports.Notifier = Func(func(context.Context, domain.Toast) {})

type multi []ports.Notifier

func (m multi) Notify(ctx context.Context, toast domain.Toast) {
	for _, n := range m {
		n.Notify(ctx, toast)
	}
}

// Multi fans a toast out to every non-nil notifier, in order.
func Multi(notifiers ...ports.Notifier) ports.Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Logger writes toasts as log records. Error toasts log at error level.
func Logger(logger *slog.Logger) ports.Notifier {
	return Func(func(ctx context.Context, toast domain.Toast) {
		level := slog.LevelInfo
		switch toast.Level {
		case domain.ToastError:
			level = slog.LevelError
		case domain.ToastWarning:
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, toast.Message, "operation", toast.Operation, "toast", string(toast.Level))
	})
}

// Writer prints one coloured line per toast.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	profile termenv.Profile
}

// NewWriter creates a Writer. The colour profile is detected from out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, profile: termenv.NewOutput(out).ColorProfile()}
}

// NewWriterWithProfile creates a Writer with an explicit colour profile.
func NewWriterWithProfile(out io.Writer, profile termenv.Profile) *Writer {
	return &Writer{out: out, profile: profile}
}

var levelColors = map[domain.ToastLevel]string{
	domain.ToastSuccess: "#22c55e",
	domain.ToastError:   "#ef4444",
	domain.ToastWarning: "#f59e0b",
	domain.ToastInfo:    "#3b82f6",
}

// Notify prints the toast.
func (w *Writer) Notify(_ context.Context, toast domain.Toast) {
	label := w.profile.String(fmt.Sprintf("[%s]", toast.Level)).Bold()
	if c, ok := levelColors[toast.Level]; ok {
		label = label.Foreground(w.profile.Color(c))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if toast.Operation != "" {
		fmt.Fprintf(w.out, "%s %s (%s)\n", label, toast.Message, toast.Operation)
		return
	}
	fmt.Fprintf(w.out, "%s %s\n", label, toast.Message)
}

// Recorder keeps the most recent toasts in memory.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	toasts []domain.Toast
}

// NewRecorder keeps at most limit toasts. A limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Notify records the toast, evicting the oldest one when full.
func (r *Recorder) Notify(_ context.Context, toast domain.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
	if r.limit > 0 && len(r.toasts) > r.limit {
		r.toasts = r.toasts[len(r.toasts)-r.limit:]
	}
}

// Toasts returns a copy of the recorded toasts, oldest first.
func (r *Recorder) Toasts() []domain.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Drain returns the recorded toasts and forgets them.
func (r *Recorder) Drain() []domain.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	return out
}
