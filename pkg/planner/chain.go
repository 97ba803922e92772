package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/metrics"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/reduction"
	"github.com/convexopt/solverchain/pkg/solver"
)

// TerminalStep adapts a backend as the final step of a solving chain. Its
// forward and backward transforms are identities; the backend's actual solve
// happens between them, in SolvingChain.Solve.
type TerminalStep struct {
	backend solver.Backend
}

// NewTerminalStep wraps a backend as a chain step.
func NewTerminalStep(b solver.Backend) *TerminalStep {
	return &TerminalStep{backend: b}
}

// Name implements reduction.Reduction; it reports the backend's name.
func (s *TerminalStep) Name() string { return s.backend.Describe().Name }

// Backend returns the wrapped terminal backend.
func (s *TerminalStep) Backend() solver.Backend { return s.backend }

// Apply implements reduction.Reduction as an identity.
func (s *TerminalStep) Apply(in any) (any, any, error) { return in, nil, nil }

// Invert implements reduction.Reduction as an identity.
func (s *TerminalStep) Invert(result any, _ any) (any, error) { return result, nil }

// SolvingChain is an immutable, executable reduction pipeline terminating in
// a backend. It is built once per problem shape and candidate set, and is
// safe to reuse across repeated solves of structurally identical problems.
type SolvingChain struct {
	chain    *reduction.Chain
	terminal *TerminalStep
}

// NewSolvingChain validates and assembles a chain. The step list must be
// non-empty and its last element must be the terminal solver step, which
// must not appear anywhere else; violations yield ErrInvalidChain.
func NewSolvingChain(steps ...reduction.Reduction) (*SolvingChain, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: chain has no steps", ErrInvalidChain)
	}
	terminal, ok := steps[len(steps)-1].(*TerminalStep)
	if !ok {
		return nil, fmt.Errorf("%w: last step %q is not a terminal solver",
			ErrInvalidChain, steps[len(steps)-1].Name())
	}
	for _, step := range steps[:len(steps)-1] {
		if _, isTerminal := step.(*TerminalStep); isTerminal {
			return nil, fmt.Errorf("%w: terminal solver step %q is not last",
				ErrInvalidChain, step.Name())
		}
	}
	return &SolvingChain{chain: reduction.NewChain(steps...), terminal: terminal}, nil
}

// Steps returns the names of every step, terminal solver included.
func (c *SolvingChain) Steps() []string {
	reds := c.chain.Reductions()
	names := make([]string, 0, len(reds))
	for _, r := range reds {
		names = append(names, r.Name())
	}
	return names
}

// Backend returns the terminal backend the chain was planned for.
func (c *SolvingChain) Backend() solver.Backend { return c.terminal.Backend() }

// Apply runs every forward transform without invoking the backend, returning
// the backend payload and the accumulated inverse contexts. Useful for
// inspection and testing.
func (c *SolvingChain) Apply(problem core.Problem) (any, []any, error) {
	return c.chain.Apply(problem)
}

// Invert runs every backward transform in reverse order, mapping a raw
// backend result to a problem-level solution.
func (c *SolvingChain) Invert(raw any, inverses []any) (core.Solution, error) {
	out, err := c.chain.Invert(raw, inverses)
	if err != nil {
		return core.Solution{}, err
	}
	sol, ok := out.(core.Solution)
	if !ok {
		return core.Solution{}, fmt.Errorf("chain inverted to %T, expected core.Solution", out)
	}
	return sol, nil
}

// Solve executes the chain: forward transforms, the backend's native solve,
// then inverse transforms in reverse order. The backend call is treated as
// an opaque blocking operation; no retries are performed and failures are
// surfaced unchanged.
func (c *SolvingChain) Solve(ctx context.Context, problem core.Problem, warmStart, verbose bool, opts solver.Options) (core.Solution, error) {
	logger := logging.FromContext(ctx)
	name := c.terminal.Name()

	data, inverses, err := c.Apply(problem)
	if err != nil {
		return core.Solution{}, err
	}

	logger.V(logging.DEBUG).Info("Invoking terminal solver", "solver", name, "warmStart", warmStart)
	start := time.Now()
	raw, err := c.terminal.Backend().SolveViaData(ctx, data, warmStart, verbose, opts)
	elapsed := time.Since(start)
	if err != nil {
		metrics.SolveDuration.WithLabelValues(name, string(core.StatusError)).Observe(elapsed.Seconds())
		return core.Solution{}, fmt.Errorf("solver %s: %w", name, err)
	}

	sol, err := c.Invert(raw, inverses)
	if err != nil {
		return core.Solution{}, err
	}
	metrics.SolveDuration.WithLabelValues(name, string(sol.Status)).Observe(elapsed.Seconds())
	logger.V(logging.DEBUG).Info("Solve completed", "solver", name, "status", sol.Status, "duration", elapsed)
	return sol, nil
}
