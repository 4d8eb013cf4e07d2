// Package config holds the runtime options shared by the supervisor and its
// sessions, and the file/environment settings consumed by the procsup CLI.
package config
