package command

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// Spec describes a child process to spawn.
type Spec struct {
	// Argv is the argument vector; Argv[0] names the executable.
	Argv []string

	// Dir is the working directory. Empty means the parent's directory.
	Dir string

	// Env holds environment overrides. Names not present are inherited
	// from the parent process.
	Env map[string]string

	// SearchPaths are extra directories searched for Argv[0] after PATH.
	SearchPaths []string
}

// Name returns Argv[0], or an empty string for an empty vector.
func (s Spec) Name() string {
	if len(s.Argv) == 0 {
		return ""
	}

	return s.Argv[0]
}

// BuildEnvironment returns the child environment for the given overrides.
//
// A nil result means "inherit the parent environment unchanged", which is
// what exec.Cmd does for a nil Env. Otherwise the parent environment is
// copied with every overridden name replaced, and new names appended in
// sorted order so the result is deterministic.
func BuildEnvironment(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	parent := os.Environ()
	env := make([]string, 0, len(parent)+len(overrides))
	seen := make(map[string]bool, len(overrides))

	for _, kv := range parent {
		name, _, _ := strings.Cut(kv, "=")

		if value, ok := overrides[name]; ok {
			if !seen[name] {
				env = append(env, name+"="+value)
				seen[name] = true
			}

			continue
		}

		env = append(env, kv)
	}

	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if !seen[name] {
			env = append(env, name+"="+overrides[name])
		}
	}

	return env
}
