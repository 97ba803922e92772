package solvers

import "github.com/convexopt/solverchain/pkg/solver"

// NewDefaultRegistry returns a registry holding the reference backends.
// Callers typically layer declared backends from configuration on top.
func NewDefaultRegistry() *solver.Registry {
	reg := solver.NewRegistry()
	reg.MustRegister(NewKKTQP())
	reg.MustRegister(NewSimplexLP())
	return reg
}
