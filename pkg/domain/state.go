package domain

import (
	"encoding/json"
	"fmt"
)

// SliceState is the state container of one resource slice.
// Data holds the resource-specific fields. The status flags are shared by every slice:
// Pending is true between dispatch and settlement, Error and Message are set together.
type SliceState[D any] struct {
	Data    D
	Pending bool
	Error   bool
	Message string
}

// Status is the resource-independent part of a SliceState.
type Status struct {
	Pending bool   `json:"pending"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Status returns the flags of the state without its data.
func (s SliceState[D]) Status() Status {
	return Status{Pending: s.Pending, Error: s.Error, Message: s.Message}
}

// Fields flattens the state into a single map: every data field next to
// "pending", "error" and "message". Data must encode as a JSON object.
func (s SliceState[D]) Fields() (map[string]any, error) {
	raw, err := json.Marshal(s.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode slice data: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("slice data must encode as a JSON object: %w", err)
	}
	fields["pending"] = s.Pending
	fields["error"] = s.Error
	fields["message"] = s.Message
	return fields, nil
}

// MarshalJSON encodes the flattened form returned by Fields.
func (s SliceState[D]) MarshalJSON() ([]byte, error) {
	fields, err := s.Fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}
