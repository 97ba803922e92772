package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Problem is the planner's view of an optimization problem. Implementations
// must be immutable for the duration of planning; all predicates are pure.
type Problem interface {
	// IsConvex reports whether the problem follows convexity rules.
	IsConvex() bool
	// IsMixedInteger reports whether any variable carries an integrality
	// constraint.
	IsMixedInteger() bool
	// IsQuadratic reports whether the problem is recognized as
	// QP-representable (quadratic or linear objective, linear constraints,
	// only QP-representable atoms).
	IsQuadratic() bool
	// ObjectiveSense is the optimization direction.
	ObjectiveSense() ObjectiveSense
	// Atoms returns the problem's atom inventory.
	Atoms() []AtomKind
}

// DefaultQPAtoms returns the base set of atom kinds a quadratic-program
// pipeline can represent: affine and piecewise-linear atoms plus the
// quadratic atoms themselves.
func DefaultQPAtoms() sets.Set[AtomKind] {
	return sets.New(
		AtomAffine, AtomAbs, AtomMaximum, AtomNorm1, AtomNormInf,
		AtomSumSquares, AtomQuadForm, AtomQuadOverLin, AtomHuber,
	)
}

// SOCBlock is a single second-order-cone constraint ||A x + b||_2 <= c'x + d.
type SOCBlock struct {
	A *mat.Dense
	B *mat.VecDense
	C *mat.VecDense
	D float64
}

// ProgramSpec is the input to NewProgram. All matrix fields are optional;
// nil means the corresponding block is absent. Dimensions must be mutually
// consistent with Variables.
type ProgramSpec struct {
	// Variables is the number of decision variables, n >= 1.
	Variables int
	// Sense is the optimization direction; defaults to Minimize.
	Sense ObjectiveSense
	// P is the quadratic objective term of minimize 1/2 x'Px + q'x + r.
	// Nil for a linear objective.
	P *mat.SymDense
	// Q is the linear objective term; nil means the zero vector.
	Q *mat.VecDense
	// R is the constant objective offset.
	R float64
	// EqA/EqB define equality rows EqA x == EqB.
	EqA *mat.Dense
	EqB *mat.VecDense
	// InA/InB define inequality rows InA x <= InB.
	InA *mat.Dense
	InB *mat.VecDense
	// SOC lists second-order-cone constraint blocks.
	SOC []SOCBlock
	// Integers lists indices of integer-constrained variables.
	Integers []int
	// Atoms is the atom inventory recorded by the frontend. When nil, a
	// minimal inventory is inferred from the program's structure.
	Atoms []AtomKind
	// QPAtoms overrides DefaultQPAtoms for quadratic-shape recognition.
	QPAtoms sets.Set[AtomKind]
}

// Program is a concrete matrix-level problem carrier implementing Problem.
// Its predicates are computed structurally from the stored blocks. A Program
// is immutable after construction; accessors return copies.
type Program struct {
	n       int
	sense   ObjectiveSense
	p       *mat.SymDense
	q       *mat.VecDense
	r       float64
	eqA     *mat.Dense
	eqB     *mat.VecDense
	inA     *mat.Dense
	inB     *mat.VecDense
	soc     []SOCBlock
	ints    []int
	atoms   []AtomKind
	qpAtoms sets.Set[AtomKind]
}

// NewProgram validates spec and builds an immutable Program. Dimension
// mismatches and out-of-range integer indices are construction errors and
// never surface from the planner.
func NewProgram(spec ProgramSpec) (*Program, error) {
	n := spec.Variables
	if n < 1 {
		return nil, fmt.Errorf("program needs at least one variable, got %d", n)
	}
	sense := spec.Sense
	if sense == "" {
		sense = Minimize
	}
	if sense != Minimize && sense != Maximize {
		return nil, fmt.Errorf("unknown objective sense %q", sense)
	}

	prog := &Program{n: n, sense: sense, r: spec.R}

	if spec.P != nil {
		if spec.P.SymmetricDim() != n {
			return nil, fmt.Errorf("quadratic term is %dx%d, want %dx%d",
				spec.P.SymmetricDim(), spec.P.SymmetricDim(), n, n)
		}
		prog.p = mat.NewSymDense(n, nil)
		prog.p.CopySym(spec.P)
	}
	if spec.Q != nil {
		if spec.Q.Len() != n {
			return nil, fmt.Errorf("linear term has %d entries, want %d", spec.Q.Len(), n)
		}
		prog.q = mat.VecDenseCopyOf(spec.Q)
	} else {
		prog.q = mat.NewVecDense(n, nil)
	}

	var err error
	if prog.eqA, prog.eqB, err = copyRows("equality", spec.EqA, spec.EqB, n); err != nil {
		return nil, err
	}
	if prog.inA, prog.inB, err = copyRows("inequality", spec.InA, spec.InB, n); err != nil {
		return nil, err
	}

	for i, blk := range spec.SOC {
		cp, err := copySOC(blk, n)
		if err != nil {
			return nil, fmt.Errorf("second-order cone block %d: %w", i, err)
		}
		prog.soc = append(prog.soc, cp)
	}

	seen := sets.New[int]()
	for _, idx := range spec.Integers {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("integer index %d out of range [0,%d)", idx, n)
		}
		if seen.Has(idx) {
			return nil, fmt.Errorf("duplicate integer index %d", idx)
		}
		seen.Insert(idx)
		prog.ints = append(prog.ints, idx)
	}

	if spec.Atoms != nil {
		prog.atoms = append([]AtomKind(nil), spec.Atoms...)
	} else {
		prog.atoms = inferAtoms(prog)
	}
	if spec.QPAtoms != nil {
		prog.qpAtoms = spec.QPAtoms.Clone()
	} else {
		prog.qpAtoms = DefaultQPAtoms()
	}
	return prog, nil
}

func copyRows(kind string, a *mat.Dense, b *mat.VecDense, n int) (*mat.Dense, *mat.VecDense, error) {
	if a == nil && b == nil {
		return nil, nil, nil
	}
	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("%s block needs both matrix and right-hand side", kind)
	}
	rows, cols := a.Dims()
	if cols != n {
		return nil, nil, fmt.Errorf("%s matrix has %d columns, want %d", kind, cols, n)
	}
	if b.Len() != rows {
		return nil, nil, fmt.Errorf("%s right-hand side has %d entries, want %d", kind, b.Len(), rows)
	}
	return mat.DenseCopyOf(a), mat.VecDenseCopyOf(b), nil
}

func copySOC(blk SOCBlock, n int) (SOCBlock, error) {
	if blk.A == nil || blk.B == nil || blk.C == nil {
		return SOCBlock{}, fmt.Errorf("block needs A, B and C")
	}
	rows, cols := blk.A.Dims()
	if cols != n {
		return SOCBlock{}, fmt.Errorf("A has %d columns, want %d", cols, n)
	}
	if blk.B.Len() != rows {
		return SOCBlock{}, fmt.Errorf("B has %d entries, want %d", blk.B.Len(), rows)
	}
	if blk.C.Len() != n {
		return SOCBlock{}, fmt.Errorf("C has %d entries, want %d", blk.C.Len(), n)
	}
	return SOCBlock{
		A: mat.DenseCopyOf(blk.A),
		B: mat.VecDenseCopyOf(blk.B),
		C: mat.VecDenseCopyOf(blk.C),
		D: blk.D,
	}, nil
}

// inferAtoms records a minimal inventory for programs built without one:
// everything is affine except the quadratic objective term and the norm
// behind each second-order-cone block.
func inferAtoms(p *Program) []AtomKind {
	atoms := []AtomKind{AtomAffine}
	if p.p != nil {
		atoms = append(atoms, AtomQuadForm)
	}
	for range p.soc {
		atoms = append(atoms, AtomNorm2)
	}
	return atoms
}

// IsConvex reports convexity of the program: a linear objective is always
// convex, a quadratic one requires P (or -P under Maximize) to be positive
// semidefinite.
func (p *Program) IsConvex() bool {
	if p.p == nil {
		return true
	}
	eff := mat.NewSymDense(p.n, nil)
	eff.CopySym(p.p)
	if p.sense == Maximize {
		eff.ScaleSym(-1, eff)
	}
	return isPSD(eff)
}

// isPSD factorizes with a small diagonal shift: plain Cholesky rejects
// singular semidefinite matrices, so shift by a tiny multiple of the
// largest diagonal magnitude before factoring.
func isPSD(s *mat.SymDense) bool {
	n := s.SymmetricDim()
	maxDiag := 1.0
	for i := 0; i < n; i++ {
		if d := math.Abs(s.At(i, i)); d > maxDiag {
			maxDiag = d
		}
	}
	shifted := mat.NewSymDense(n, nil)
	shifted.CopySym(s)
	eps := 1e-9 * maxDiag
	for i := 0; i < n; i++ {
		shifted.SetSym(i, i, shifted.At(i, i)+eps)
	}
	var ch mat.Cholesky
	return ch.Factorize(shifted)
}

// IsMixedInteger reports whether any variable is integer-constrained.
func (p *Program) IsMixedInteger() bool { return len(p.ints) > 0 }

// IsQuadratic reports whether the program is QP-representable: no cone
// blocks and every recorded atom is in the QP atom set. Quadratic-shape
// recognition is structural; it does not depend on which solvers exist.
func (p *Program) IsQuadratic() bool {
	if len(p.soc) > 0 {
		return false
	}
	for _, a := range p.atoms {
		if !p.qpAtoms.Has(a) {
			return false
		}
	}
	return true
}

// ObjectiveSense returns the optimization direction.
func (p *Program) ObjectiveSense() ObjectiveSense { return p.sense }

// Atoms returns a copy of the atom inventory.
func (p *Program) Atoms() []AtomKind { return append([]AtomKind(nil), p.atoms...) }

// Variables returns the number of decision variables.
func (p *Program) Variables() int { return p.n }

// Objective returns copies of the objective terms of
// minimize/maximize 1/2 x'Px + q'x + r. P is nil for a linear objective.
func (p *Program) Objective() (*mat.SymDense, *mat.VecDense, float64) {
	var pc *mat.SymDense
	if p.p != nil {
		pc = mat.NewSymDense(p.n, nil)
		pc.CopySym(p.p)
	}
	return pc, mat.VecDenseCopyOf(p.q), p.r
}

// Equalities returns copies of the equality block, or nils when absent.
func (p *Program) Equalities() (*mat.Dense, *mat.VecDense) {
	if p.eqA == nil {
		return nil, nil
	}
	return mat.DenseCopyOf(p.eqA), mat.VecDenseCopyOf(p.eqB)
}

// Inequalities returns copies of the inequality block, or nils when absent.
func (p *Program) Inequalities() (*mat.Dense, *mat.VecDense) {
	if p.inA == nil {
		return nil, nil
	}
	return mat.DenseCopyOf(p.inA), mat.VecDenseCopyOf(p.inB)
}

// SOCConstraints returns copies of the second-order-cone blocks.
func (p *Program) SOCConstraints() []SOCBlock {
	out := make([]SOCBlock, 0, len(p.soc))
	for _, blk := range p.soc {
		cp, _ := copySOC(blk, p.n)
		out = append(out, cp)
	}
	return out
}

// IntegerIndices returns a copy of the integer-constrained variable indices.
func (p *Program) IntegerIndices() []int { return append([]int(nil), p.ints...) }

// Negated returns a program with the objective sign flipped and the sense
// reversed; constraints and atom inventory are unchanged. Negating a
// maximization yields the equivalent minimization every reduction expects.
func (p *Program) Negated() *Program {
	out := &Program{
		n:       p.n,
		r:       -p.r,
		eqA:     p.eqA,
		eqB:     p.eqB,
		inA:     p.inA,
		inB:     p.inB,
		soc:     p.soc,
		ints:    p.ints,
		atoms:   p.atoms,
		qpAtoms: p.qpAtoms,
	}
	if p.sense == Maximize {
		out.sense = Minimize
	} else {
		out.sense = Maximize
	}
	if p.p != nil {
		out.p = mat.NewSymDense(p.n, nil)
		out.p.ScaleSym(-1, p.p)
	}
	out.q = mat.NewVecDense(p.n, nil)
	out.q.ScaleVec(-1, p.q)
	return out
}
