package command

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/procsup-go/internal/errors"
)

// Config holds configuration for executable discovery.
type Config struct {
	// SearchPaths are extra directories searched after PATH.
	SearchPaths []string

	// Logger is an optional logger for discovery operations.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates executables for spawning.
type Discoverer interface {
	// Discover returns the absolute path of the executable for name,
	// or an *errors.SpawnError listing every searched location.
	Discover(name string) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new executable discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the executable for name.
func (d *discoverer) Discover(name string) (string, error) {
	if name == "" {
		return "", &errors.SpawnError{Err: errors.ErrEmptyCommand}
	}

	// Explicit paths are used as given and never searched for.
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		d.log.Debug("Using explicit executable path", "path", name)

		info, err := os.Stat(name)
		if err != nil {
			return "", &errors.SpawnError{
				Argv:          []string{name},
				SearchedPaths: []string{name},
				Err:           errors.ErrExecutableNotFound,
			}
		}

		if info.IsDir() {
			return "", &errors.SpawnError{
				Argv: []string{name},
				Err:  exec.ErrNotFound,
			}
		}

		abs, err := filepath.Abs(name)
		if err != nil {
			return name, nil
		}

		return abs, nil
	}

	searchedPaths := make([]string, 0, len(d.cfg.SearchPaths)+1)

	if path, err := exec.LookPath(name); err == nil {
		d.log.Debug("Found executable in PATH", "name", name, "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	for _, dir := range d.cfg.SearchPaths {
		candidate := filepath.Join(dir, name)
		searchedPaths = append(searchedPaths, candidate)

		if isExecutable(candidate) {
			d.log.Debug("Found executable in search path", "name", name, "path", candidate)

			return candidate, nil
		}
	}

	d.log.Warn("Executable not found in any searched paths", "name", name, "searched_paths", searchedPaths)

	return "", &errors.SpawnError{
		Argv:          []string{name},
		SearchedPaths: searchedPaths,
		Err:           errors.ErrExecutableNotFound,
	}
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return info.Mode().Perm()&0o111 != 0
}
