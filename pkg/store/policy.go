package store

import (
	"fmt"
	"strings"
)

// SettlePolicy decides what happens when dispatches of the same operation overlap.
type SettlePolicy int

const (
	// LastDispatchedWins discards settlements older than the latest dispatch.
	// Pending stays true until the latest dispatch settles.
	LastDispatchedWins SettlePolicy = iota

	// LastSettledWins applies every settlement in arrival order, so a slow
	// older response can overwrite a newer one.
	LastSettledWins
)

func (p SettlePolicy) String() string {
	switch p {
	case LastSettledWins:
		return "last-settled"
	default:
		return "last-dispatched"
	}
}

// ParseSettlePolicy accepts "last-dispatched" or "last-settled". Empty means the default.
func ParseSettlePolicy(raw string) (SettlePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "last-dispatched":
		return LastDispatchedWins, nil
	case "last-settled":
		return LastSettledWins, nil
	}
	return LastDispatchedWins, fmt.Errorf("invalid settle policy %q", raw)
}
