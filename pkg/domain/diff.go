package domain

import (
	"reflect"
	"slices"
)

// StateDiff represents the changes of one slice between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	Slice string `json:"slice"`

	// Fields contains only changed, added or deleted keys of the flattened state.
	// For deletions, the key is present with a nil value.
	Fields map[string]any `json:"fields,omitempty"`
}

// StatusFields are the keys of the flattened state that belong to the status flags.
var StatusFields = []string{"pending", "error", "message"}

// Diff calculates the difference between two flattened slice states.
// If old is nil, it returns a diff representing the entire new state (initial load).
// It returns nil when nothing changed.
func Diff(slice string, old, new map[string]any) *StateDiff {
	if new == nil {
		return nil
	}
	delta := diffFields(old, new)
	if len(delta) == 0 {
		return nil
	}
	return &StateDiff{Slice: slice, Fields: delta}
}

func diffFields(old, new map[string]any) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new {
			delta[k] = v
		}
		return delta
	}

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}
	return delta
}

// Filter keeps only the status keys (status=true) or only the data keys (data=true).
// With both flags set the diff is returned unchanged; with neither, nil is returned.
func (d *StateDiff) Filter(status, data bool) *StateDiff {
	if d == nil || (!status && !data) {
		return nil
	}
	if status && data {
		return d
	}
	out := &StateDiff{Slice: d.Slice, Fields: make(map[string]any)}
	for k, v := range d.Fields {
		if slices.Contains(StatusFields, k) == status {
			out.Fields[k] = v
		}
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || len(d.Fields) == 0
}
