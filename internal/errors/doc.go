// Package errors defines error types for the process supervisor.
//
// This package provides structured error types that wrap the different
// failure scenarios of spawning a child process, talking to it over its
// standard streams, and talking to it over a TCP socket. All error types
// support error unwrapping and can be checked using errors.Is, errors.As,
// and errors.AsType.
package errors
