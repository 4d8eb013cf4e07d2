// Package cmd implements the procsup command line: one-shot runs, pipe
// exchanges, single socket sends, and the server walkthrough.
//
// Settings come from a YAML config file, PROCSUP_* environment variables,
// and flags, in increasing order of precedence.
package cmd
