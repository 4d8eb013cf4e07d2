// Package sampleapp is a small child program used to exercise the
// supervisor: it greets, fails on purpose, dumps its environment, runs an
// interactive command loop, echoes, hangs (optionally ignoring SIGTERM),
// and serves the one-line TCP protocol.
//
// It is built as cmd/sampleapp and is also run in-process by tests that
// re-execute the test binary with PROCSUP_SAMPLEAPP=1.
package sampleapp
