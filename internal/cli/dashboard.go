package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/parkdash/internal/presentation/tui"
	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds concurrent dispatches of one dashboard load.
const maxParallelLoads = 4

// LoadDashboard dispatches every operation in tags concurrently and waits for
// all of them. A failed operation does not cancel the others; failures are
// joined in the returned error.
func LoadDashboard(ctx context.Context, d ports.Dispatcher, tags []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxParallelLoads)

	for _, tag := range tags {
		g.Go(func() error {
			if _, err := d.Dispatch(ctx, tag, domain.Args{}); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", tag, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}

// SliceStatuses returns the flags of the slices touched by tags, in tag order.
func SliceStatuses(d ports.Dispatcher, tags []string) []tui.SliceStatus {
	seen := make(map[string]bool)
	var out []tui.SliceStatus
	for _, tag := range tags {
		name, _, _ := strings.Cut(tag, "/")
		if seen[name] {
			continue
		}
		seen[name] = true

		snap, err := d.Snapshot(name)
		if err != nil {
			continue
		}
		st := tui.SliceStatus{Name: name}
		if s, ok := snap.(interface{ Status() domain.Status }); ok {
			st.Status = s.Status()
		}
		out = append(out, st)
	}
	return out
}
