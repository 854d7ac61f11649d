package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
)

// subscriberBuffer is the per-connection change buffer. Slow clients lose changes
// beyond it; the next delivered diff is computed against what they last received.
const subscriberBuffer = 64

// streamMessage is the data of one SSE event.
type streamMessage struct {
	Event domain.Event      `json:"event"`
	Diff  *domain.StateDiff `json:"diff"`
}

// watchFilter selects which diff keys a connection receives.
type watchFilter struct {
	status bool
	data   bool
}

// parseWatch reads "status", "data" or "status,data". Empty means both.
func parseWatch(raw string) (watchFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return watchFilter{status: true, data: true}, nil
	}
	var f watchFilter
	for _, field := range strings.Split(raw, ",") {
		switch strings.TrimSpace(field) {
		case "status":
			f.status = true
		case "data":
			f.data = true
		default:
			return f, fmt.Errorf("unknown watch field %q", field)
		}
	}
	return f, nil
}

// flatten turns a slice state into its generic flat JSON form.
func flatten(state any) (map[string]any, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubscribeEvents handles GET /events: one SSE event per applied change, carrying
// the diff against the previous state this connection saw.
// Query: watch=status,data and slice=<name>[,<name>...].
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported", "")
		return
	}

	watch, err := parseWatch(r.URL.Query().Get("watch"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	known := s.dispatcher.Slices()
	selected := make(map[string]bool, len(known))
	if raw := r.URL.Query().Get("slice"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if _, err := s.dispatcher.Snapshot(name); err != nil {
				s.writeDomainError(w, err)
				return
			}
			selected[name] = true
		}
	} else {
		for _, name := range known {
			selected[name] = true
		}
	}

	// subscribe before the baseline so no change falls in between
	changes, cancel := s.dispatcher.Subscribe(subscriberBuffer)
	defer cancel()

	last := make(map[string]map[string]any, len(selected))
	for name := range selected {
		snap, err := s.dispatcher.Snapshot(name)
		if err != nil {
			continue
		}
		if fields, err := flatten(snap); err == nil {
			last[name] = fields
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE client connected", "slices", len(selected))

	var heartbeat <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected")
			return
		case <-heartbeat:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		case change, ok := <-changes:
			if !ok {
				fmt.Fprintf(w, "event: close\ndata: store closed\n\n")
				flusher.Flush()
				return
			}
			if !selected[change.Slice] {
				continue
			}

			fields, err := flatten(change.State)
			if err != nil {
				s.logger.Warn("SSE: cannot flatten state", "slice", change.Slice, "err", err)
				continue
			}
			diff := domain.Diff(change.Slice, last[change.Slice], fields)
			last[change.Slice] = fields

			diff = diff.Filter(watch.status, watch.data)
			if diff.IsEmpty() {
				continue
			}
			diff.Fields = s.redactor.Map(diff.Fields)

			msg, err := json.Marshal(streamMessage{Event: change.Event, Diff: diff})
			if err != nil {
				s.logger.Warn("SSE: cannot encode diff", "slice", change.Slice, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Event.Type, msg)
			flusher.Flush()
		}
	}
}
