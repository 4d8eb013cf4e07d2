// Package session performs bounded-time request/response exchanges with a
// child process over its standard streams.
//
// A Session wraps one subprocess.Process and serialises exchanges on it:
// the request is written, stdout and stderr are collected concurrently
// until the reply boundary, and the exchange resolves as Completed,
// TimedOut, or Cancelled. A deadline or cancellation escalates to
// terminate, a grace-period wait, then kill and an unconditional wait, so
// a timed-out exchange never leaves the child un-reaped.
//
// Two reply boundaries are supported. BoundaryExit treats everything the
// child writes until it closes its streams and exits as the reply, which
// suits one-shot children. BoundaryLine treats one stdout line as the reply
// and keeps the child running for further exchanges.
package session
