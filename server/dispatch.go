package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/deepnoodle-ai/taskdesk/log"
)

// dispatcher runs background work detached from the request that started
// it and lets shutdown wait for it.
type dispatcher struct {
	wg sync.WaitGroup
}

// Go runs fn in a goroutine with a context that outlives the request but
// keeps its values. Panics are logged, never propagated.
func (d *dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Ctx(ctx).Error("background task panicked",
					"task", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
			}
		}()
		fn(ctx)
	}()
}

// Wait blocks until every dispatched task returns or ctx is done.
func (d *dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
