package reductions

import (
	"fmt"

	"github.com/convexopt/solverchain/pkg/core"
)

// FlipObjective negates the objective of a maximization problem so the
// downstream reductions see a minimization. Its inverse restores the sign of
// the optimal value; primal and dual values are unchanged by the flip.
type FlipObjective struct{}

// NewFlipObjective creates the objective-flip step.
func NewFlipObjective() *FlipObjective { return &FlipObjective{} }

// Name implements reduction.Reduction.
func (*FlipObjective) Name() string { return "flip-objective" }

// Apply negates the program's objective and reverses its sense.
func (*FlipObjective) Apply(in any) (any, any, error) {
	prog, ok := in.(*core.Program)
	if !ok {
		return nil, nil, fmt.Errorf("expected *core.Program, got %T", in)
	}
	return prog.Negated(), nil, nil
}

// Invert restores the optimal value's original orientation.
func (*FlipObjective) Invert(result any, _ any) (any, error) {
	sol, ok := result.(core.Solution)
	if !ok {
		return nil, fmt.Errorf("expected core.Solution, got %T", result)
	}
	sol.Value = -sol.Value
	return sol, nil
}
