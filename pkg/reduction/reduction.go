// Package reduction defines the two-way transformation steps a solving chain
// is composed of. A Reduction lowers a problem representation one level on
// the way to a backend (Apply) and lifts a raw result back up (Invert).
// Payloads are opaque between steps: each reduction type-asserts the
// representation it expects and returns a descriptive error on mismatch, so
// the chain machinery stays free of step-specific switches.
package reduction

import "fmt"

// Reduction is a named, structure-preserving transformation with a forward
// and a backward contract. Implementations must be stateless; all per-apply
// state travels in the returned inverse context.
type Reduction interface {
	// Name identifies the step in logs and chain listings.
	Name() string
	// Apply lowers in to the next representation and returns the inverse
	// context Invert needs to lift a result back across this step.
	Apply(in any) (out any, inverse any, err error)
	// Invert maps a lower-level result back to this step's level using the
	// inverse context produced by the matching Apply.
	Invert(result any, inverse any) (any, error)
}

// Chain composes reductions strictly in sequence: Apply runs front to back
// accumulating inverse contexts, Invert runs back to front consuming them.
// A Chain has no branching; the planner decides the sequence once.
type Chain struct {
	steps []Reduction
}

// NewChain builds a chain over the given steps.
func NewChain(steps ...Reduction) *Chain {
	return &Chain{steps: append([]Reduction(nil), steps...)}
}

// Reductions returns the composed steps in order.
func (c *Chain) Reductions() []Reduction {
	return append([]Reduction(nil), c.steps...)
}

// Apply runs every step's forward transform in order. The returned inverse
// contexts are positional: inverses[i] belongs to step i.
func (c *Chain) Apply(in any) (out any, inverses []any, err error) {
	out = in
	inverses = make([]any, 0, len(c.steps))
	for _, step := range c.steps {
		var inv any
		out, inv, err = step.Apply(out)
		if err != nil {
			return nil, nil, fmt.Errorf("applying %s: %w", step.Name(), err)
		}
		inverses = append(inverses, inv)
	}
	return out, inverses, nil
}

// Invert runs every step's backward transform in reverse order.
func (c *Chain) Invert(result any, inverses []any) (any, error) {
	if len(inverses) != len(c.steps) {
		return nil, fmt.Errorf("got %d inverse contexts for %d steps", len(inverses), len(c.steps))
	}
	for i := len(c.steps) - 1; i >= 0; i-- {
		var err error
		result, err = c.steps[i].Invert(result, inverses[i])
		if err != nil {
			return nil, fmt.Errorf("inverting %s: %w", c.steps[i].Name(), err)
		}
	}
	return result, nil
}
