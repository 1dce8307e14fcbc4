// Package scheduler implements the cooperative multitasking model: one
// long-lived task per deployment, advancing that deployment's block cursor
// strictly sequentially, over a fixed worker pool shared across deployments.
// Built on golang.org/x/sync/errgroup.
package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Deployment advances one subgraph deployment's block cursor. Advance is
// called repeatedly by Pool until it returns false (caught up / halted) or
// ctx is cancelled.
type Deployment interface {
	// Advance processes the next block, if any is ready, and reports
	// whether the caller should call Advance again (true) or stop driving
	// this deployment (false — e.g. caught up with chain head or halted).
	// Pool does not call Advance again after it returns false.
	Advance(ctx context.Context) (more bool, err error)
}

// Pool runs a fixed number of deployments concurrently; each deployment's
// own dispatch is always sequential — the pool only parallelizes *across*
// deployments, never within one.
type Pool struct {
	size int
}

// NewPool returns a Pool bounded to size concurrent deployment tasks. A size
// below 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

// Run drives every deployment in deployments to completion (Advance
// returning more=false) or until ctx is cancelled or one deployment returns
// a fatal error, whichever happens first. Deployments run independently of
// each other; no deployment observes another's state.
func (p *Pool) Run(ctx context.Context, deployments []Deployment) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for _, d := range deployments {
		d := d
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				more, err := d.Advance(ctx)
				if err != nil {
					return err
				}
				if !more {
					return nil
				}
			}
		})
	}
	return g.Wait()
}
