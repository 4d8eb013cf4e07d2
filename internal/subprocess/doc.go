// Package subprocess owns a spawned child process and its three standard
// streams.
//
// A Process provides raw primitives only: write to stdin, read stdout and
// stderr, half-close stdin, request termination, force a kill, and wait
// for or poll the exit status. Higher-level exchange logic lives in the
// session package.
//
// Every Process is reaped by a dedicated goroutine started at spawn time,
// so no code path can leave a zombie behind. On Unix the child is placed in
// its own process group and signals are delivered to the whole group, which
// also stops helpers the child itself spawned (for example when the child
// is a shell script).
package subprocess
