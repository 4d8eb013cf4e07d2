package config

import (
	"fmt"
	"strings"

	"github.com/wagiedev/procsup-go/internal/session"
)

// ParseBoundary maps a configured boundary name to a session.Boundary.
//
// Accepted names (case-insensitive):
//   - "exit", "communicate", "" -> session.BoundaryExit
//   - "line" -> session.BoundaryLine
func ParseBoundary(name string) (session.Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "exit", "communicate":
		return session.BoundaryExit, nil
	case "line":
		return session.BoundaryLine, nil
	default:
		return session.BoundaryExit, fmt.Errorf("unknown boundary %q", name)
	}
}

// ValidBoundaries returns the canonical boundary names.
func ValidBoundaries() []string {
	return []string{session.BoundaryExit.String(), session.BoundaryLine.String()}
}
