package solvers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/reductions"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/solver"
)

// SimplexLPName is the registry name of the simplex LP backend.
const SimplexLPName = "simplexlp"

// SimplexLP solves linear cone programs with gonum's simplex method after a
// free-variable split x = xp - xn and slack augmentation of the inequality
// rows. It declares support for no cone kinds, so the planner routes it only
// cone-free problems; stuffed data carrying second-order cones is rejected.
type SimplexLP struct{}

// NewSimplexLP creates the backend.
func NewSimplexLP() *SimplexLP { return &SimplexLP{} }

// Describe implements solver.Backend.
func (*SimplexLP) Describe() solver.Descriptor {
	return solver.Descriptor{
		Name:           SimplexLPName,
		Family:         solver.FamilyConic,
		SupportedCones: sets.New[core.ConeKind](),
		Rank:           0,
	}
}

// SolveViaData implements solver.Backend over *reductions.ConeStuffed.
func (*SimplexLP) SolveViaData(ctx context.Context, data any, _, verbose bool, opts solver.Options) (any, error) {
	stuffed, ok := data.(*reductions.ConeStuffed)
	if !ok {
		return nil, fmt.Errorf("simplexlp: expected *reductions.ConeStuffed, got %T", data)
	}
	if len(stuffed.SOC) > 0 {
		return nil, fmt.Errorf("simplexlp: cone program contains second-order cones")
	}
	if len(stuffed.Integers) > 0 {
		return nil, fmt.Errorf("simplexlp: integer variables are not supported")
	}

	start := time.Now()
	n := stuffed.N
	meq, mineq := 0, 0
	if stuffed.A != nil {
		meq, _ = stuffed.A.Dims()
	}
	if stuffed.G != nil {
		mineq, _ = stuffed.G.Dims()
	}

	if meq+mineq == 0 {
		return unconstrainedLP(stuffed, start), nil
	}

	// Standard form: split free variables into xp - xn, add one slack per
	// inequality row. Columns: [xp | xn | s].
	cols := 2*n + mineq
	cPrime := make([]float64, cols)
	for i := 0; i < n; i++ {
		cPrime[i] = stuffed.C.AtVec(i)
		cPrime[n+i] = -stuffed.C.AtVec(i)
	}

	a := mat.NewDense(meq+mineq, cols, nil)
	b := make([]float64, meq+mineq)
	for i := 0; i < meq; i++ {
		for j := 0; j < n; j++ {
			v := stuffed.A.At(i, j)
			a.Set(i, j, v)
			a.Set(i, n+j, -v)
		}
		b[i] = stuffed.B.AtVec(i)
	}
	for i := 0; i < mineq; i++ {
		for j := 0; j < n; j++ {
			v := stuffed.G.At(i, j)
			a.Set(meq+i, j, v)
			a.Set(meq+i, n+j, -v)
		}
		a.Set(meq+i, 2*n+i, 1)
		b[meq+i] = stuffed.H.AtVec(i)
	}

	tol := opts.Float64("tolerance", 0)
	optF, xOpt, err := lp.Simplex(cPrime, a, b, tol, nil)
	elapsed := time.Since(start)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return &reductions.RawResult{Status: core.StatusInfeasible, SolveTime: elapsed}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return &reductions.RawResult{Status: core.StatusUnbounded, SolveTime: elapsed}, nil
	case err != nil:
		return &reductions.RawResult{Status: core.StatusError, SolveTime: elapsed}, nil
	}

	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xOpt[i] - xOpt[n+i]
	}

	if verbose {
		logging.FromContext(ctx).Info("simplexlp solved linear program",
			"variables", n, "rows", meq+mineq, "objective", optF+stuffed.R)
	}

	return &reductions.RawResult{
		Status:    core.StatusOptimal,
		Objective: optF + stuffed.R,
		X:         x,
		SolveTime: elapsed,
	}, nil
}

// unconstrainedLP handles the degenerate row-free case simplex cannot
// represent: the program is optimal at the origin when the objective is
// identically zero and unbounded otherwise.
func unconstrainedLP(stuffed *reductions.ConeStuffed, start time.Time) *reductions.RawResult {
	for i := 0; i < stuffed.N; i++ {
		if stuffed.C.AtVec(i) != 0 {
			return &reductions.RawResult{Status: core.StatusUnbounded, SolveTime: time.Since(start)}
		}
	}
	return &reductions.RawResult{
		Status:    core.StatusOptimal,
		Objective: stuffed.R,
		X:         make([]float64, stuffed.N),
		SolveTime: time.Since(start),
	}
}
