// Package procsup supervises external child processes and exchanges
// messages with them under a deadline.
//
// A child is talked to in one of two ways: over its stdin/stdout pipes
// (Child.Exchange), or over TCP with one newline-terminated line per
// connection (Child.Send). Every pipe exchange is bounded: when the
// timeout elapses or the context is cancelled, the child is asked to
// terminate, given a grace period (DefaultGracePeriod), killed if it is
// still alive, and always reaped. The Outcome then reports StatusTimedOut
// or StatusCancelled together with whatever output arrived before.
//
// # One-shot Runs
//
// Run starts a command, feeds it input, and captures its output:
//
//	res, err := procsup.Run(ctx, []string{"git", "status", "--short"},
//	    procsup.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    var exitErr *procsup.ExitError
//	    if errors.As(err, &exitErr) {
//	        log.Printf("git failed with %d: %s", exitErr.ExitCode, exitErr.Stderr)
//	    }
//	    return err
//	}
//	fmt.Print(res.Stdout)
//
// # Scoped Children
//
// WithChild guarantees the child is shut down however the callback exits:
//
//	err := procsup.WithChild(ctx, []string{"./server", "--port", "12345"}, func(c *procsup.Child) error {
//	    if err := c.WaitForListener(ctx); err != nil {
//	        return err
//	    }
//	    reply, err := c.Send(ctx, "Hello, world!")
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(reply)
//	    return nil
//	},
//	    procsup.WithSocketAddress("localhost", 12345),
//	)
//
// For several long-lived children, use NewSupervisor and Supervisor.Start,
// and Supervisor.Shutdown when done.
//
// # Error Handling
//
// Failures are typed and can be checked with errors.As or errors.Is:
//
//   - *SpawnError: the executable was not found or could not start
//   - *BrokenPipeError (ErrBrokenPipe): the child no longer reads its input
//   - *ConnectionRefusedError (ErrConnectionRefused): nothing listens
//   - *ConnectTimeoutError (ErrConnectTimeout): the connect took too long
//   - *ProtocolError: a socket exchange failed after connecting
//   - *ExitError, *TimeoutError: returned by Run
package procsup
