package procsup

import (
	"context"
	"fmt"
)

// WithChild manages a child's lifecycle with guaranteed cleanup.
//
// It spawns argv, calls fn with the running Child, and closes the child on
// every exit path: fn returning, fn failing, fn panicking, and ctx being
// cancelled while fn runs. Close gives the child the configured grace
// period to exit after its stdin is closed, then terminates, kills, and
// reaps it. A panic in fn propagates after cleanup.
//
// fn's error is returned as-is. If fn succeeds but ctx ended meanwhile,
// ctx's error is returned.
//
// Example usage:
//
//	err := procsup.WithChild(ctx, []string{"python3", "-u", "echo.py"}, func(c *procsup.Child) error {
//	    out, err := c.Exchange(ctx, "ping")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(out.Stdout)
//	    return nil
//	},
//	    procsup.WithBoundary(procsup.BoundaryLine),
//	    procsup.WithTimeout(2*time.Second),
//	)
func WithChild(ctx context.Context, argv []string, fn func(*Child) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	sup := NewSupervisor(opts...)

	child, err := sup.Start(ctx, argv)
	if err != nil {
		return fmt.Errorf("failed to start child: %w", err)
	}

	// Cleanup runs to completion even when ctx is what triggered it.
	cleanupCtx := context.WithoutCancel(ctx)

	stop := context.AfterFunc(ctx, func() {
		child.log.Debug("Context done, closing child")

		_ = child.Close(cleanupCtx)
	})

	defer func() {
		stop()

		if closeErr := child.Close(cleanupCtx); closeErr != nil {
			child.log.Warn("failed to close child", "error", closeErr)
		}
	}()

	if err := fn(child); err != nil {
		return err
	}

	return ctx.Err()
}
