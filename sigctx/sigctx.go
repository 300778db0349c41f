// Package sigctx provides a root context that is canceled on SIGINT or
// SIGTERM.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context canceled by the first interrupt. A second interrupt
// kills the process the usual way.
func New() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}
