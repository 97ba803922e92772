// Package core provides the fundamental data structures for the solver-chain
// planner.
//
// This package contains the domain models shared by every other package:
//
//   - Problem: the planner-facing view of an optimization problem
//     (convexity, integrality, quadratic shape, objective sense, atoms)
//   - Program: a concrete matrix-level problem carrier implementing Problem,
//     with structurally computed predicates
//   - ObjectiveSense, ConeKind, AtomKind: the planning vocabulary
//   - Solution, Status: the problem-level result of executing a chain
//
// The planner consumes only the Problem interface, so callers with their own
// expression-tree frontends can plan without building a Program. Program
// exists so the planner and reductions are exercised end to end: it stores
// the objective 1/2 x'Px + q'x + r, linear equality and inequality blocks,
// second-order-cone blocks, integer variable indices, and an atom inventory.
//
// Example usage:
//
//	// minimize x0 + x1 subject to x0 + x1 == 1
//	prog, err := core.NewProgram(core.ProgramSpec{
//		Variables: 2,
//		Q:         mat.NewVecDense(2, []float64{1, 1}),
//		EqA:       mat.NewDense(1, 2, []float64{1, 1}),
//		EqB:       mat.NewVecDense(1, []float64{1}),
//	})
//
// Programs are immutable after construction; all accessors return copies.
package core
