package reductions

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/convexopt/solverchain/pkg/core"
)

// QuadraticCanon lowers a QP-shaped program to the canonical QPForm. It
// rejects programs a QP pipeline cannot carry; the planner's gating makes
// those rejections unreachable through planned chains.
type QuadraticCanon struct{}

// NewQuadraticCanon creates the QP canonicalization step.
func NewQuadraticCanon() *QuadraticCanon { return &QuadraticCanon{} }

// Name implements reduction.Reduction.
func (*QuadraticCanon) Name() string { return "quadratic-canon" }

// Apply validates QP shape and produces the canonical form.
func (*QuadraticCanon) Apply(in any) (any, any, error) {
	prog, ok := in.(*core.Program)
	if !ok {
		return nil, nil, fmt.Errorf("expected *core.Program, got %T", in)
	}
	if prog.ObjectiveSense() != core.Minimize {
		return nil, nil, fmt.Errorf("requires a minimization; flip the objective first")
	}
	if !prog.IsQuadratic() {
		return nil, nil, fmt.Errorf("program is not recognized as a quadratic program")
	}

	p, q, r := prog.Objective()
	a, b := prog.Equalities()
	g, h := prog.Inequalities()
	form := &QPForm{
		N:        prog.Variables(),
		P:        p,
		Q:        q,
		R:        r,
		A:        a,
		B:        b,
		G:        g,
		H:        h,
		Integers: prog.IntegerIndices(),
	}
	return form, nil, nil
}

// Invert passes the solution through unchanged; canonicalization does not
// rename or reorder variables.
func (*QuadraticCanon) Invert(result any, _ any) (any, error) {
	sol, ok := result.(core.Solution)
	if !ok {
		return nil, fmt.Errorf("expected core.Solution, got %T", result)
	}
	return sol, nil
}

// QPMatrixStuffing materializes the canonical form into the dense standard
// QP payload a backend consumes and records the metadata needed to map the
// raw result back to problem-level variables and duals.
type QPMatrixStuffing struct{}

// NewQPMatrixStuffing creates the QP stuffing step.
func NewQPMatrixStuffing() *QPMatrixStuffing { return &QPMatrixStuffing{} }

// Name implements reduction.Reduction.
func (*QPMatrixStuffing) Name() string { return "qp-matrix-stuffing" }

type qpInverse struct {
	n     int
	meq   int
	mineq int
}

// Apply assembles the stuffed standard form.
func (*QPMatrixStuffing) Apply(in any) (any, any, error) {
	form, ok := in.(*QPForm)
	if !ok {
		return nil, nil, fmt.Errorf("expected *QPForm, got %T", in)
	}

	p := form.P
	if p == nil {
		p = mat.NewSymDense(form.N, nil)
	}
	stuffed := &QPStuffed{
		N:        form.N,
		P:        p,
		Q:        form.Q,
		R:        form.R,
		A:        form.A,
		B:        form.B,
		G:        form.G,
		H:        form.H,
		Integers: form.Integers,
	}
	inv := &qpInverse{n: form.N, meq: rows(form.A), mineq: rows(form.G)}
	return stuffed, inv, nil
}

// Invert maps the backend's raw result to a problem-level solution.
func (*QPMatrixStuffing) Invert(result any, inverse any) (any, error) {
	raw, ok := result.(*RawResult)
	if !ok {
		return nil, fmt.Errorf("expected *RawResult, got %T", result)
	}
	inv, ok := inverse.(*qpInverse)
	if !ok {
		return nil, fmt.Errorf("expected *qpInverse context, got %T", inverse)
	}
	return liftRawResult(raw, inv.n, inv.meq, inv.mineq), nil
}

// liftRawResult translates a raw backend result into a core.Solution over
// the first n stuffed variables and the recorded constraint row counts.
func liftRawResult(raw *RawResult, n, meq, mineq int) core.Solution {
	sol := core.Solution{
		Status: raw.Status,
		Attr: map[string]any{
			"iterations": raw.Iterations,
			"solve_time": raw.SolveTime,
		},
	}
	if !raw.Status.IsOK() {
		return sol
	}
	sol.Value = raw.Objective
	sol.Primal = append([]float64(nil), raw.X[:n]...)
	if len(raw.DualEq) >= meq {
		sol.DualEq = append([]float64(nil), raw.DualEq[:meq]...)
	}
	if len(raw.DualIneq) >= mineq {
		sol.DualIneq = append([]float64(nil), raw.DualIneq[:mineq]...)
	}
	return sol
}

func rows(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}
