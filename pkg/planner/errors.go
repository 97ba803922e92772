package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/convexopt/solverchain/pkg/core"
)

var (
	// ErrNotConvex is returned when the problem fails convexity rules.
	// Fatal: no reduction pipeline exists for a non-convex problem.
	ErrNotConvex = errors.New("problem does not follow DCP rules")

	// ErrInvalidChain is returned when a solving chain is assembled without
	// a terminal solver step or with an empty step list. It is unreachable
	// through Plan and indicates a planner bug if observed.
	ErrInvalidChain = errors.New("invalid solving chain")
)

// SolverUnavailableError reports an explicitly requested solver that is not
// in the installed set. The check precedes all others, including convexity.
type SolverUnavailableError struct {
	Name string
}

func (e *SolverUnavailableError) Error() string {
	return fmt.Sprintf("solver %q is not installed", e.Name)
}

// NoMIPSolverError reports a mixed-integer problem none of whose candidate
// solvers is MIP-capable.
type NoMIPSolverError struct {
	Candidates []string
}

func (e *NoMIPSolverError) Error() string {
	return fmt.Sprintf("problem is mixed-integer, but candidate solvers (%s) are not MIP-capable",
		strings.Join(e.Candidates, ", "))
}

// NoConicSolverError reports that the problem could not be lowered to a QP
// and no conic candidate exists.
type NoConicSolverError struct {
	Candidates []string
}

func (e *NoConicSolverError) Error() string {
	return fmt.Sprintf("problem could not be reduced to a QP, and no conic solvers exist among candidates (%s)",
		strings.Join(e.Candidates, ", "))
}

// UnsupportedConesError reports that every conic candidate lacks at least
// one cone the problem requires.
type UnsupportedConesError struct {
	Required   []core.ConeKind
	Candidates []string
}

func (e *UnsupportedConesError) Error() string {
	kinds := make([]string, 0, len(e.Required))
	for _, k := range e.Required {
		kinds = append(kinds, string(k))
	}
	return fmt.Sprintf("candidate conic solvers (%s) do not support the cones output by the problem (%s)",
		strings.Join(e.Candidates, ", "), strings.Join(kinds, ", "))
}
