// Package reductions implements the concrete reduction steps the planner
// composes into solving chains: objective flipping, quadratic and conic
// canonicalization, and the two matrix-stuffing steps that produce the
// payloads terminal backends consume.
package reductions

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/convexopt/solverchain/pkg/core"
)

// QPForm is a canonicalized quadratic program
//
//	minimize 1/2 x'Px + q'x + r
//	subject to A x == b, G x <= h
//
// produced by QuadraticCanon. P is nil for a linear objective; A/B and G/H
// are nil when the corresponding block is empty.
type QPForm struct {
	N        int
	P        *mat.SymDense
	Q        *mat.VecDense
	R        float64
	A        *mat.Dense
	B        *mat.VecDense
	G        *mat.Dense
	H        *mat.VecDense
	Integers []int
}

// QPStuffed is the payload a QP-family backend consumes. Identical shape to
// QPForm except P is always materialized (zero matrix for a linear
// objective).
type QPStuffed struct {
	N        int
	P        *mat.SymDense
	Q        *mat.VecDense
	R        float64
	A        *mat.Dense
	B        *mat.VecDense
	G        *mat.Dense
	H        *mat.VecDense
	Integers []int
}

// SOCSlab is one second-order-cone block ||A x + b||_2 <= c'x + d in the
// lowered variable space.
type SOCSlab struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// ConeForm is a canonicalized cone program
//
//	minimize c'x + r
//	subject to A x == b, G x <= h, SOC slabs
//
// produced by ConicCanon. The variable space may be larger than the original
// problem's when canonicalization introduced epigraph variables.
type ConeForm struct {
	N        int
	C        *mat.VecDense
	R        float64
	A        *mat.Dense
	B        *mat.VecDense
	G        *mat.Dense
	H        *mat.VecDense
	SOC      []SOCSlab
	Integers []int
}

// ConeStuffed is the payload a conic-family backend consumes.
type ConeStuffed struct {
	N        int
	C        *mat.VecDense
	R        float64
	A        *mat.Dense
	B        *mat.VecDense
	G        *mat.Dense
	H        *mat.VecDense
	SOC      []SOCSlab
	Integers []int
}

// RawResult is the untranslated output of a backend solve, in the stuffed
// variable space. The stuffing steps' inverse transforms map it back to a
// problem-level core.Solution.
type RawResult struct {
	Status     core.Status
	Objective  float64
	X          []float64
	DualEq     []float64
	DualIneq   []float64
	Iterations int
	SolveTime  time.Duration
}
