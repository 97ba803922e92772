package planner

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/solver"
)

// fakeProblem gives each predicate an explicit value; planning consults
// nothing else.
type fakeProblem struct {
	convex    bool
	mip       bool
	quadratic bool
	sense     core.ObjectiveSense
	atoms     []core.AtomKind
}

func (p fakeProblem) IsConvex() bool                      { return p.convex }
func (p fakeProblem) IsMixedInteger() bool                { return p.mip }
func (p fakeProblem) IsQuadratic() bool                   { return p.quadratic }
func (p fakeProblem) ObjectiveSense() core.ObjectiveSense { return p.sense }
func (p fakeProblem) Atoms() []core.AtomKind              { return p.atoms }

func linearProblem() fakeProblem {
	return fakeProblem{convex: true, quadratic: true, sense: core.Minimize}
}

func conicBackend(name string, rank int, cones ...core.ConeKind) solver.Backend {
	return solver.NewDeclared(solver.Descriptor{
		Name:           name,
		Family:         solver.FamilyConic,
		SupportedCones: sets.New(cones...),
		Rank:           rank,
	})
}

func qpBackend(name string, rank int, mip bool) solver.Backend {
	return solver.NewDeclared(solver.Descriptor{
		Name:       name,
		Family:     solver.FamilyQP,
		MIPCapable: mip,
		Rank:       rank,
	})
}

var _ = Describe("Plan", func() {
	var (
		ctx context.Context
		reg *solver.Registry
	)

	BeforeEach(func() {
		ctx = context.Background()
		reg = solver.NewRegistry()
	})

	Context("candidate resolution", func() {
		It("fails with SolverUnavailableError before any other check", func() {
			// Not even the convexity gate runs for an unknown solver, so
			// a non-convex problem must still report unavailability.
			problem := fakeProblem{convex: false, sense: core.Minimize}
			_, err := Plan(ctx, problem, reg, Options{Solver: "X"})

			var unavailable *SolverUnavailableError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &unavailable)).To(BeTrue())
			Expect(unavailable.Name).To(Equal("X"))
		})

		It("restricts planning to the requested solver", func() {
			reg.MustRegister(qpBackend("qp-good", 0, false))
			reg.MustRegister(conicBackend("conic-good", 0))

			chain, err := Plan(ctx, linearProblem(), reg, Options{Solver: "conic-good"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("conic-good"))
		})

		It("intersects explicit candidates with the installed set", func() {
			reg.MustRegister(conicBackend("a", 0))
			reg.MustRegister(conicBackend("b", 1))

			chain, err := Plan(ctx, linearProblem(), reg, Options{Candidates: []string{"b", "ghost"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("b"))
		})
	})

	Context("feasibility gate", func() {
		It("fails with ErrNotConvex regardless of candidates", func() {
			reg.MustRegister(qpBackend("qp", 0, true))
			reg.MustRegister(conicBackend("conic", 0,
				core.SecondOrderCone, core.ExponentialCone, core.PositiveSemidefiniteCone))

			problem := fakeProblem{convex: false, quadratic: true, sense: core.Minimize}
			_, err := Plan(ctx, problem, reg, Options{})
			Expect(err).To(MatchError(ErrNotConvex))
		})
	})

	Context("MIP filter", func() {
		It("narrows to MIP-capable backends", func() {
			reg.MustRegister(qpBackend("qp-no-mip", 0, false))
			reg.MustRegister(qpBackend("qp-mip", 1, true))

			problem := fakeProblem{convex: true, quadratic: true, mip: true, sense: core.Minimize}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("qp-mip"))
			Expect(chain.Backend().Describe().MIPCapable).To(BeTrue())
		})

		It("fails with NoMIPSolverError naming the tried candidates", func() {
			reg.MustRegister(qpBackend("qp-no-mip", 0, false))

			problem := fakeProblem{convex: true, quadratic: true, mip: true, sense: core.Minimize}
			_, err := Plan(ctx, problem, reg, Options{})

			var noMIP *NoMIPSolverError
			Expect(errors.As(err, &noMIP)).To(BeTrue())
			Expect(noMIP.Candidates).To(ConsistOf("qp-no-mip"))
		})
	})

	Context("QP-first attempt", func() {
		It("prefers the highest-preference QP backend over any conic one", func() {
			reg.MustRegister(conicBackend("conic", 0, core.SecondOrderCone))
			reg.MustRegister(qpBackend("qp-second", 2, false))
			reg.MustRegister(qpBackend("qp-first", 1, false))

			chain, err := Plan(ctx, linearProblem(), reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("qp-first"))
			Expect(chain.Steps()).To(Equal([]string{
				"quadratic-canon", "qp-matrix-stuffing", "qp-first",
			}))
		})

		It("falls through to conic when the shape is not quadratic, even with QP solvers installed", func() {
			reg.MustRegister(qpBackend("qp", 0, false))
			reg.MustRegister(conicBackend("conic", 0, core.ExponentialCone))

			problem := fakeProblem{
				convex: true, quadratic: false, sense: core.Minimize,
				atoms: []core.AtomKind{core.AtomLog},
			}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("conic"))
		})
	})

	Context("conic fallback", func() {
		It("fails with NoConicSolverError when no conic candidate exists", func() {
			reg.MustRegister(qpBackend("qp", 0, false))

			problem := fakeProblem{
				convex: true, quadratic: false, sense: core.Minimize,
				atoms: []core.AtomKind{core.AtomLog},
			}
			_, err := Plan(ctx, problem, reg, Options{})

			var noConic *NoConicSolverError
			Expect(errors.As(err, &noConic)).To(BeTrue())
			Expect(noConic.Candidates).To(ConsistOf("qp"))
		})
	})

	Context("cone requirement matching", func() {
		It("selects the first candidate in preference order supporting the required cones", func() {
			// SolverB outranks SolverA but supports no cones; the SOC
			// requirement must route to SolverA.
			reg.MustRegister(conicBackend("solver-b", 0))
			reg.MustRegister(conicBackend("solver-a", 1, core.SecondOrderCone))

			problem := fakeProblem{
				convex: true, sense: core.Minimize,
				atoms: []core.AtomKind{core.AtomNorm2},
			}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("solver-a"))

			required := sets.New(core.SecondOrderCone)
			Expect(chain.Backend().Describe().Cones().IsSuperset(required)).To(BeTrue())
		})

		It("lets a zero-requirement problem win with the first candidate, even one supporting no cones", func() {
			reg.MustRegister(conicBackend("bare", 0))
			reg.MustRegister(conicBackend("rich", 1,
				core.SecondOrderCone, core.ExponentialCone, core.PositiveSemidefiniteCone))

			problem := fakeProblem{
				convex: true, sense: core.Minimize,
				atoms: []core.AtomKind{core.AtomAffine},
			}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Backend().Describe().Name).To(Equal("bare"))
		})

		It("fails with UnsupportedConesError naming cones and candidates", func() {
			reg.MustRegister(conicBackend("soc-only", 0, core.SecondOrderCone))

			problem := fakeProblem{
				convex: true, sense: core.Minimize,
				atoms: []core.AtomKind{core.AtomNorm2, core.AtomLog},
			}
			_, err := Plan(ctx, problem, reg, Options{})

			var unsupported *UnsupportedConesError
			Expect(errors.As(err, &unsupported)).To(BeTrue())
			Expect(unsupported.Required).To(ConsistOf(core.SecondOrderCone, core.ExponentialCone))
			Expect(unsupported.Candidates).To(ConsistOf("soc-only"))
		})
	})

	Context("orientation normalization", func() {
		It("prepends the objective flip for maximization on the QP path", func() {
			reg.MustRegister(qpBackend("qp", 0, false))

			problem := fakeProblem{convex: true, quadratic: true, sense: core.Maximize}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Steps()[0]).To(Equal("flip-objective"))
		})

		It("prepends the objective flip for maximization on the conic path", func() {
			reg.MustRegister(conicBackend("conic", 0))

			problem := fakeProblem{convex: true, sense: core.Maximize}
			chain, err := Plan(ctx, problem, reg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.Steps()[0]).To(Equal("flip-objective"))
		})
	})

	Context("chain invariants", func() {
		It("always plans a non-empty chain ending in the terminal solver", func() {
			reg.MustRegister(conicBackend("conic", 0))
			chain, err := Plan(ctx, linearProblem(), reg, Options{Solver: "conic"})
			Expect(err).NotTo(HaveOccurred())

			steps := chain.Steps()
			Expect(steps).NotTo(BeEmpty())
			Expect(steps[len(steps)-1]).To(Equal("conic"))
		})
	})
})
