// Package solvers provides the reference pure-Go backends and the default
// registry assembly. The backends are deliberately minimal: kktqp solves
// equality-constrained quadratic programs exactly through the KKT system,
// and simplexlp solves linear programs with gonum's simplex implementation.
// Production deployments register their own adapters alongside or instead of
// these.
package solvers

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/reductions"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/solver"
)

// KKTQPName is the registry name of the KKT-system QP backend.
const KKTQPName = "kktqp"

// KKTQP solves equality-constrained convex quadratic programs exactly by
// solving the KKT system
//
//	[ P  A' ] [x]   [-q]
//	[ A  0  ] [v] = [ b]
//
// with a dense LU factorization. Inequality rows are out of its scope and
// rejected with an error.
type KKTQP struct{}

// NewKKTQP creates the backend.
func NewKKTQP() *KKTQP { return &KKTQP{} }

// Describe implements solver.Backend.
func (*KKTQP) Describe() solver.Descriptor {
	return solver.Descriptor{
		Name:   KKTQPName,
		Family: solver.FamilyQP,
		Rank:   0,
	}
}

// SolveViaData implements solver.Backend over *reductions.QPStuffed.
func (*KKTQP) SolveViaData(ctx context.Context, data any, _, verbose bool, opts solver.Options) (any, error) {
	stuffed, ok := data.(*reductions.QPStuffed)
	if !ok {
		return nil, fmt.Errorf("kktqp: expected *reductions.QPStuffed, got %T", data)
	}
	if stuffed.G != nil {
		return nil, fmt.Errorf("kktqp: inequality constraints are not supported")
	}
	if len(stuffed.Integers) > 0 {
		return nil, fmt.Errorf("kktqp: integer variables are not supported")
	}

	start := time.Now()
	n := stuffed.N
	meq := 0
	if stuffed.A != nil {
		meq, _ = stuffed.A.Dims()
	}

	kkt := mat.NewDense(n+meq, n+meq, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, stuffed.P.At(i, j))
		}
	}
	for i := 0; i < meq; i++ {
		for j := 0; j < n; j++ {
			v := stuffed.A.At(i, j)
			kkt.Set(n+i, j, v)
			kkt.Set(j, n+i, v)
		}
	}

	rhs := mat.NewVecDense(n+meq, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, -stuffed.Q.AtVec(i))
	}
	for i := 0; i < meq; i++ {
		rhs.SetVec(n+i, stuffed.B.AtVec(i))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		// A singular KKT system means the program has no unique
		// stationary point: surface a status, not a retry.
		return &reductions.RawResult{Status: core.StatusError, SolveTime: time.Since(start)}, nil
	}

	x := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.SetVec(i, sol.AtVec(i))
	}
	dualEq := make([]float64, meq)
	for i := 0; i < meq; i++ {
		dualEq[i] = sol.AtVec(n + i)
	}

	objective := 0.5*mat.Inner(x, stuffed.P, x) + mat.Dot(stuffed.Q, x) + stuffed.R

	if verbose {
		logging.FromContext(ctx).Info("kktqp solved KKT system",
			"variables", n, "equalities", meq, "objective", objective)
	}

	return &reductions.RawResult{
		Status:     core.StatusOptimal,
		Objective:  objective,
		X:          x.RawVector().Data,
		DualEq:     dualEq,
		Iterations: 1,
		SolveTime:  time.Since(start),
	}, nil
}
