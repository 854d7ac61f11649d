// Package redact masks secrets (tokens, passwords) in values before they are
// printed by the CLI or served by the gateway and the MCP server.
package redact

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Mask replaces every redacted value.
const Mask = "***"

// DefaultPatterns match the key names parkdash treats as secret.
var DefaultPatterns = []string{`(?i)token`, `(?i)password`, `(?i)secret`, `(?i)^authorization$`, `(?i)^sealed$`}

// Redactor masks values whose key matches one of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// New compiles the patterns into a Redactor.
func New(patterns ...string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

var std = MustNew(DefaultPatterns...)

// MustNew is like New but panics on an invalid pattern.
func MustNew(patterns ...string) *Redactor {
	r, err := New(patterns...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the Redactor built from DefaultPatterns.
func Default() *Redactor {
	return std
}

func (r *Redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// Map returns a masked deep copy of m. The input is never modified.
func (r *Redactor) Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if r.matches(k) && v != nil && v != "" {
			out[k] = Mask
			continue
		}
		out[k] = r.walk(v)
	}
	return out
}

func (r *Redactor) walk(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return r.Map(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = r.walk(item)
		}
		return out
	default:
		return v
	}
}

// Value converts v to its generic JSON form and masks it.
func (r *Redactor) Value(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return r.walk(generic), nil
}

// Value masks v with the default Redactor.
func Value(v any) (any, error) {
	return std.Value(v)
}

// Map masks m with the default Redactor.
func Map(m map[string]any) map[string]any {
	return std.Map(m)
}
