package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  map[string]any
		new  map[string]any
		want map[string]any // nil means no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  map[string]any{"arrivals": []any{}, "pending": false},
			want: map[string]any{"arrivals": []any{}, "pending": false},
		},
		{
			name: "No Changes",
			old:  map[string]any{"pending": false, "message": ""},
			new:  map[string]any{"pending": false, "message": ""},
			want: nil,
		},
		{
			name: "Flag Flip",
			old:  map[string]any{"pending": false, "error": false},
			new:  map[string]any{"pending": true, "error": false},
			want: map[string]any{"pending": true},
		},
		{
			name: "Deleted Key",
			old:  map[string]any{"arrival": map[string]any{"id": 1.0}, "pending": false},
			new:  map[string]any{"pending": false},
			want: map[string]any{"arrival": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("arrival", tt.old, tt.new)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got.Fields)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.want)
			}
			if !reflect.DeepEqual(got.Fields, tt.want) {
				t.Errorf("Diff() = %v, want %v", got.Fields, tt.want)
			}
		})
	}
}

func TestDiff_Filter(t *testing.T) {
	d := &StateDiff{Slice: "arrival", Fields: map[string]any{
		"pending":  false,
		"arrivals": map[string]any{"total": 1.0},
	}}

	status := d.Filter(true, false)
	if status == nil || len(status.Fields) != 1 || status.Fields["pending"] != false {
		t.Errorf("status filter = %+v", status)
	}

	data := d.Filter(false, true)
	if data == nil || len(data.Fields) != 1 || data.Fields["arrivals"] == nil {
		t.Errorf("data filter = %+v", data)
	}

	if d.Filter(true, true) != d {
		t.Error("expected the full diff when both filters are set")
	}

	onlyStatus := &StateDiff{Slice: "arrival", Fields: map[string]any{"pending": true}}
	if onlyStatus.Filter(false, true) != nil {
		t.Error("expected nil when the filter removes every key")
	}
}

func TestDiff_JSONShape(t *testing.T) {
	d := Diff("arrival", nil, map[string]any{"pending": true})
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"slice":"arrival","fields":{"pending":true}}` {
		t.Errorf("unexpected JSON: %s", b)
	}
}
