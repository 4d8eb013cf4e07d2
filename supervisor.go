package procsup

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/procsup-go/internal/command"
	"github.com/wagiedev/procsup-go/internal/errors"
	"github.com/wagiedev/procsup-go/internal/subprocess"
)

// Supervisor starts child processes and tracks them until they are closed.
//
// A Supervisor is safe for concurrent use. Options given to NewSupervisor
// apply to every child; options given to Start apply on top of them.
type Supervisor struct {
	opts []Option
	log  *slog.Logger

	mu       sync.Mutex
	children map[string]*Child
	closed   bool
}

// NewSupervisor creates a Supervisor with the given default options.
func NewSupervisor(opts ...Option) *Supervisor {
	log := applyOptions(opts).Logger
	if log == nil {
		log = NopLogger()
	}

	return &Supervisor{
		opts:     opts,
		log:      log.With("component", "supervisor"),
		children: make(map[string]*Child),
	}
}

// Start spawns argv and returns the running Child.
//
// The caller owns the Child and must Close it; Shutdown closes every child
// still open. Spawn failures are returned as *SpawnError.
func (s *Supervisor) Start(ctx context.Context, argv []string, opts ...Option) (*Child, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, errors.ErrSupervisorClosed
	}

	options := applyOptions(append(slices.Clone(s.opts), opts...))

	log := s.log
	if options.Logger != nil {
		log = options.Logger.With("component", "supervisor")
	}

	proc, err := subprocess.Spawn(ctx, log, command.Spec{
		Argv:        argv,
		Dir:         options.Cwd,
		Env:         options.Env,
		SearchPaths: options.SearchPaths,
	})
	if err != nil {
		log.Debug("Spawn failed", "argv", strings.Join(argv, " "), "error", err)

		return nil, err
	}

	child := newChild(s, proc, options, log.With("child_id", proc.ID(), "pid", proc.Pid()))

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		// Shutdown raced with the spawn.
		_ = child.Close(context.WithoutCancel(ctx))

		return nil, errors.ErrSupervisorClosed
	}

	s.children[child.ID()] = child
	s.mu.Unlock()

	child.log.Info("Child started", "argv", strings.Join(argv, " "))

	return child, nil
}

// Children returns the children not yet closed, oldest first.
func (s *Supervisor) Children() []*Child {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Child IDs are ULIDs, so key order is start order.
	ids := slices.Sorted(maps.Keys(s.children))

	children := make([]*Child, 0, len(ids))
	for _, id := range ids {
		children = append(children, s.children[id])
	}

	return children
}

// Shutdown stops accepting new children and closes every open child
// concurrently. It returns the first Close error.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	children := s.Children()

	s.log.Info("Shutting down", "children", len(children))

	var g errgroup.Group

	for _, child := range children {
		g.Go(func() error {
			return child.Close(ctx)
		})
	}

	return g.Wait()
}

// forget drops a closed child from the registry.
func (s *Supervisor) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.children, id)
}
