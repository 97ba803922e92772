// Package planner decides whether a problem is solvable with the installed
// backends and, if so, which ordered reduction pipeline lowers it to one of
// them. There are exactly two pipeline shapes:
//
//	[flip-objective?] quadratic-canon  -> qp-matrix-stuffing   -> QP backend
//	[flip-objective?] conic-canon     -> cone-matrix-stuffing -> conic backend
//
// A successful QP match always preempts the conic path: QP backends are
// specialized and preferred whenever the problem is structurally quadratic.
// Within a family the first candidate in preference order wins; cone
// matching uses superset containment with no further scoring.
//
// Planning is a pure, synchronous computation over the problem snapshot and
// the registry; it allocates only local state and a fresh immutable chain,
// so it is safe to call concurrently.
package planner

import (
	"context"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/metrics"
	"github.com/convexopt/solverchain/internal/reductions"
	"github.com/convexopt/solverchain/pkg/cones"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/reduction"
	"github.com/convexopt/solverchain/pkg/solver"
)

// Options narrows the planner's search.
type Options struct {
	// Solver requests a specific terminal backend by name. Planning fails
	// with SolverUnavailableError if it is not installed.
	Solver string
	// Candidates restricts the candidate set when Solver is empty. Names
	// not installed are ignored. Empty means all installed backends.
	Candidates []string
	// ConeTable overrides the default atom-to-cone classification.
	ConeTable *cones.Table
}

// Plan builds a solving chain for problem against the backends in reg, or
// returns a typed failure. No partial or best-effort chain is ever returned.
func Plan(ctx context.Context, problem core.Problem, reg *solver.Registry, opts Options) (*SolvingChain, error) {
	logger := logging.FromContext(ctx)

	// Candidate resolution. An explicit solver request is checked before
	// anything else, even the convexity gate.
	installed := sets.New(reg.Installed()...)
	var candidates sets.Set[string]
	switch {
	case opts.Solver != "":
		if !installed.Has(opts.Solver) {
			metrics.PlansTotal.WithLabelValues(metrics.OutcomeUnavailableSolver, "").Inc()
			return nil, &SolverUnavailableError{Name: opts.Solver}
		}
		candidates = sets.New(opts.Solver)
	case len(opts.Candidates) > 0:
		candidates = installed.Intersection(sets.New(opts.Candidates...))
	default:
		candidates = installed
	}

	// Feasibility gate: every downstream reduction assumes convexity.
	if !problem.IsConvex() {
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeNotConvex, "").Inc()
		return nil, ErrNotConvex
	}

	// MIP filter.
	if problem.IsMixedInteger() {
		tried := sets.List(candidates)
		narrowed := sets.New[string]()
		for name := range candidates {
			if b, ok := reg.Lookup(name); ok && b.Describe().MIPCapable {
				narrowed.Insert(name)
			}
		}
		if narrowed.Len() == 0 {
			metrics.PlansTotal.WithLabelValues(metrics.OutcomeNoMIPSolver, "").Inc()
			return nil, &NoMIPSolverError{Candidates: tried}
		}
		candidates = narrowed
	}

	// Both pipelines accept only minimization, so a maximization gets the
	// flip step regardless of which pipeline is chosen below.
	var steps []reduction.Reduction
	if problem.ObjectiveSense() == core.Maximize {
		steps = append(steps, reductions.NewFlipObjective())
	}

	// QP-first attempt. Quadratic-shape recognition, not solver presence,
	// gates this path: a problem with disqualifying atoms falls through to
	// the conic pipeline even when QP backends are available.
	qpCandidates := filterFamily(reg, solver.FamilyQP, candidates)
	if len(qpCandidates) > 0 && problem.IsQuadratic() {
		chosen := qpCandidates[0]
		steps = append(steps,
			reductions.NewQuadraticCanon(),
			reductions.NewQPMatrixStuffing(),
			NewTerminalStep(chosen),
		)
		logger.V(logging.DEBUG).Info("Planned QP pipeline", "solver", chosen.Describe().Name)
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeQP, chosen.Describe().Name).Inc()
		return NewSolvingChain(steps...)
	}

	// Conic fallback.
	conicCandidates := filterFamily(reg, solver.FamilyConic, candidates)
	if len(conicCandidates) == 0 {
		metrics.PlansTotal.WithLabelValues(metrics.OutcomeNoConicSolver, "").Inc()
		return nil, &NoConicSolverError{Candidates: sets.List(candidates)}
	}

	// Cone requirement matching: first candidate in preference order whose
	// supported cones contain the requirement set wins. A problem with no
	// required cones is satisfied by any conic candidate.
	table := cones.DefaultTable()
	if opts.ConeTable != nil {
		table = *opts.ConeTable
	}
	required := table.Required(problem)
	for _, b := range conicCandidates {
		if b.Describe().Cones().IsSuperset(required) {
			steps = append(steps,
				reductions.NewConicCanon(),
				reductions.NewConeMatrixStuffing(),
				NewTerminalStep(b),
			)
			logger.V(logging.DEBUG).Info("Planned conic pipeline",
				"solver", b.Describe().Name, "requiredCones", sets.List(required))
			metrics.PlansTotal.WithLabelValues(metrics.OutcomeConic, b.Describe().Name).Inc()
			return NewSolvingChain(steps...)
		}
	}

	metrics.PlansTotal.WithLabelValues(metrics.OutcomeUnsupportedCones, "").Inc()
	return nil, &UnsupportedConesError{
		Required:   sets.List(required),
		Candidates: backendNames(conicCandidates),
	}
}

// filterFamily intersects a family's preference-ordered members with the
// candidate set, preserving the family order.
func filterFamily(reg *solver.Registry, f solver.Family, candidates sets.Set[string]) []solver.Backend {
	var out []solver.Backend
	for _, b := range reg.Family(f) {
		if candidates.Has(b.Describe().Name) {
			out = append(out, b)
		}
	}
	return out
}

func backendNames(backends []solver.Backend) []string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Describe().Name)
	}
	return names
}
