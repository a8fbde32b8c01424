package export

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ExportAll renders one snapshot per path concurrently. The layout is
// computed once and shared; the first failure cancels outputs that have
// not started.
func ExportAll(ctx context.Context, base SnapshotOptions, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if base.Forest == nil || base.Forest.Empty() {
		return fmt.Errorf("no members to export")
	}
	base = base.normalized()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range paths {
		opts := base
		opts.Path = p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := SaveTreeSnapshot(opts); err != nil {
				return fmt.Errorf("export %s: %w", opts.Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}
