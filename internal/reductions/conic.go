package reductions

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/convexopt/solverchain/pkg/core"
)

// ConicCanon lowers a convex program to cone-program form. A linear
// objective passes through; a quadratic objective 1/2 x'Px becomes an
// epigraph variable s with the second-order-cone encoding
//
//	||[2L'x; 1-s]||_2 <= 1+s   <=>   x'Px <= s,  P = LL'
//
// built from the Cholesky factor of P.
type ConicCanon struct{}

// NewConicCanon creates the conic canonicalization step.
func NewConicCanon() *ConicCanon { return &ConicCanon{} }

// Name implements reduction.Reduction.
func (*ConicCanon) Name() string { return "conic-canon" }

type conicInverse struct {
	origN    int
	epigraph bool
}

// Apply produces the cone-program form.
func (*ConicCanon) Apply(in any) (any, any, error) {
	prog, ok := in.(*core.Program)
	if !ok {
		return nil, nil, fmt.Errorf("expected *core.Program, got %T", in)
	}
	if prog.ObjectiveSense() != core.Minimize {
		return nil, nil, fmt.Errorf("requires a minimization; flip the objective first")
	}

	n := prog.Variables()
	p, q, r := prog.Objective()
	a, b := prog.Equalities()
	g, h := prog.Inequalities()
	slabs := socSlabs(prog.SOCConstraints())

	if p == nil || isZeroSym(p) {
		form := &ConeForm{
			N: n, C: q, R: r,
			A: a, B: b, G: g, H: h,
			SOC:      slabs,
			Integers: prog.IntegerIndices(),
		}
		return form, &conicInverse{origN: n}, nil
	}

	l, err := choleskyFactor(p)
	if err != nil {
		return nil, nil, err
	}

	// Extend the variable space with the epigraph variable s at index n.
	c := mat.NewVecDense(n+1, nil)
	for i := 0; i < n; i++ {
		c.SetVec(i, q.AtVec(i))
	}
	c.SetVec(n, 0.5)

	form := &ConeForm{
		N: n + 1, C: c, R: r,
		A: extendCols(a, 1), B: b,
		G: extendCols(g, 1), H: h,
		SOC:      append(extendSlabs(slabs, 1), epigraphSlab(l, n)),
		Integers: prog.IntegerIndices(),
	}
	return form, &conicInverse{origN: n, epigraph: true}, nil
}

// Invert drops the epigraph variable from the primal, restoring the original
// variable space. The optimal value needs no adjustment: at the optimum the
// epigraph variable equals x'Px, so the lowered objective matches the
// original one.
func (*ConicCanon) Invert(result any, inverse any) (any, error) {
	sol, ok := result.(core.Solution)
	if !ok {
		return nil, fmt.Errorf("expected core.Solution, got %T", result)
	}
	inv, ok := inverse.(*conicInverse)
	if !ok {
		return nil, fmt.Errorf("expected *conicInverse context, got %T", inverse)
	}
	if inv.epigraph && len(sol.Primal) > inv.origN {
		sol.Primal = sol.Primal[:inv.origN]
	}
	return sol, nil
}

// choleskyFactor returns the lower-triangular L with P = LL'. A small
// diagonal shift keeps singular semidefinite matrices factorizable.
func choleskyFactor(p *mat.SymDense) (*mat.TriDense, error) {
	n := p.SymmetricDim()
	maxDiag := 1.0
	for i := 0; i < n; i++ {
		if d := p.At(i, i); d > maxDiag {
			maxDiag = d
		}
	}
	shifted := mat.NewSymDense(n, nil)
	shifted.CopySym(p)
	eps := 1e-9 * maxDiag
	for i := 0; i < n; i++ {
		shifted.SetSym(i, i, shifted.At(i, i)+eps)
	}
	var ch mat.Cholesky
	if !ch.Factorize(shifted) {
		return nil, fmt.Errorf("quadratic objective term is not positive semidefinite")
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	ch.LTo(l)
	return l, nil
}

// epigraphSlab builds ||[2L'x; 1-s]||_2 <= 1+s over the extended space with
// s at index n.
func epigraphSlab(l *mat.TriDense, n int) SOCSlab {
	a := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, 2*l.At(j, i))
		}
	}
	a.Set(n, n, -1)

	b := mat.NewVecDense(n+1, nil)
	b.SetVec(n, 1)

	c := mat.NewVecDense(n+1, nil)
	c.SetVec(n, 1)

	return SOCSlab{A: a, B: b, C: c, D: 1}
}

func socSlabs(blocks []core.SOCBlock) []SOCSlab {
	slabs := make([]SOCSlab, 0, len(blocks))
	for _, blk := range blocks {
		slabs = append(slabs, SOCSlab{A: blk.A, B: blk.B, C: blk.C, D: blk.D})
	}
	return slabs
}

// extendCols appends extra zero columns to m; nil stays nil.
func extendCols(m *mat.Dense, extra int) *mat.Dense {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := mat.NewDense(r, c+extra, nil)
	out.Slice(0, r, 0, c).(*mat.Dense).Copy(m)
	return out
}

// extendVec appends extra zero entries to v; nil stays nil.
func extendVec(v *mat.VecDense, extra int) *mat.VecDense {
	if v == nil {
		return nil
	}
	out := mat.NewVecDense(v.Len()+extra, nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, v.AtVec(i))
	}
	return out
}

func extendSlabs(slabs []SOCSlab, extra int) []SOCSlab {
	out := make([]SOCSlab, 0, len(slabs))
	for _, s := range slabs {
		out = append(out, SOCSlab{
			A: extendCols(s.A, extra),
			B: s.B,
			C: extendVec(s.C, extra),
			D: s.D,
		})
	}
	return out
}

func isZeroSym(s *mat.SymDense) bool {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if s.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

// ConeMatrixStuffing materializes the cone form into the backend payload and
// records the row-count metadata for lifting duals.
type ConeMatrixStuffing struct{}

// NewConeMatrixStuffing creates the cone stuffing step.
func NewConeMatrixStuffing() *ConeMatrixStuffing { return &ConeMatrixStuffing{} }

// Name implements reduction.Reduction.
func (*ConeMatrixStuffing) Name() string { return "cone-matrix-stuffing" }

type coneInverse struct {
	n     int
	meq   int
	mineq int
}

// Apply assembles the stuffed cone program.
func (*ConeMatrixStuffing) Apply(in any) (any, any, error) {
	form, ok := in.(*ConeForm)
	if !ok {
		return nil, nil, fmt.Errorf("expected *ConeForm, got %T", in)
	}
	stuffed := &ConeStuffed{
		N: form.N, C: form.C, R: form.R,
		A: form.A, B: form.B,
		G: form.G, H: form.H,
		SOC:      form.SOC,
		Integers: form.Integers,
	}
	inv := &coneInverse{n: form.N, meq: rows(form.A), mineq: rows(form.G)}
	return stuffed, inv, nil
}

// Invert maps the backend's raw result to a solution over the cone-program
// variable space; ConicCanon's inverse then trims epigraph variables.
func (*ConeMatrixStuffing) Invert(result any, inverse any) (any, error) {
	raw, ok := result.(*RawResult)
	if !ok {
		return nil, fmt.Errorf("expected *RawResult, got %T", result)
	}
	inv, ok := inverse.(*coneInverse)
	if !ok {
		return nil, fmt.Errorf("expected *coneInverse context, got %T", inverse)
	}
	return liftRawResult(raw, inv.n, inv.meq, inv.mineq), nil
}
