// Package metrics defines the Prometheus collectors exposed by the planner
// and the solving chain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors/version"
)

var (
	// PlansTotal counts planning attempts by outcome. The solver label is
	// the chosen terminal backend on success and empty on failure.
	PlansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solverchain_planner_plans_total",
			Help: "Planning attempts partitioned by outcome and chosen terminal solver.",
		},
		[]string{"outcome", "solver"},
	)

	// SolveDuration observes wall-clock duration of terminal backend solves.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solverchain_solver_solve_duration_seconds",
			Help:    "Duration of terminal solver invocations by backend and result status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"solver", "status"},
	)
)

// Planning outcome label values.
const (
	OutcomeQP                = "qp"
	OutcomeConic             = "conic"
	OutcomeUnavailableSolver = "unavailable_solver"
	OutcomeNotConvex         = "not_convex"
	OutcomeNoMIPSolver       = "no_mip_solver"
	OutcomeNoConicSolver     = "no_conic_solver"
	OutcomeUnsupportedCones  = "unsupported_cones"
)

// MustRegister registers all collectors plus build info on r.
func MustRegister(r prometheus.Registerer) {
	r.MustRegister(PlansTotal, SolveDuration, version.NewCollector("solverchain"))
}
