/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/convexopt/solverchain/api/v1alpha1"
	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/solvers"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/planner"
	"github.com/convexopt/solverchain/pkg/solver"
)

const lpDocument = `
apiVersion: solverchain.convexopt.io/v1alpha1
kind: Problem
metadata:
  name: diet-lp
spec:
  variables: 2
  objective:
    linear: [1, 2]
  equalities:
    - coefficients: [1, 1]
      rhs: 1
  inequalities:
    - coefficients: [-1, 0]
      rhs: 0
    - coefficients: [0, -1]
      rhs: 0
`

const maximizeDocument = `
apiVersion: solverchain.convexopt.io/v1alpha1
kind: Problem
metadata:
  name: concave-max
spec:
  variables: 1
  sense: maximize
  objective:
    quadratic: [[-1]]
    linear: [1]
`

func loadProgram(doc string) *core.Program {
	GinkgoHelper()
	var problem v1alpha1.Problem
	Expect(yaml.Unmarshal([]byte(doc), &problem)).To(Succeed())
	prog, err := problem.ToProgram()
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("Planning and solving end to end", func() {
	var (
		ctx context.Context
		reg *solver.Registry
	)

	BeforeEach(func() {
		ctx = logging.IntoContext(context.Background(), logging.NewTestLogger())
		reg = solvers.NewDefaultRegistry()
	})

	It("solves a linear program document through the conic pipeline", func() {
		prog := loadProgram(lpDocument)

		// A pure LP is also QP-shaped; requesting the simplex backend
		// forces the conic lowering.
		chain, err := planner.Plan(ctx, prog, reg, planner.Options{Solver: solvers.SimplexLPName})
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.Steps()).To(Equal([]string{
			"conic-canon", "cone-matrix-stuffing", solvers.SimplexLPName,
		}))

		sol, err := chain.Solve(ctx, prog, false, false, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.Status).To(Equal(core.StatusOptimal))
		Expect(sol.Value).To(BeNumerically("~", 1, 1e-9))
		Expect(sol.Primal).To(HaveLen(2))
		Expect(sol.Primal[0]).To(BeNumerically("~", 1, 1e-9))
		Expect(sol.Primal[1]).To(BeNumerically("~", 0, 1e-9))
	})

	It("solves an equality-constrained QP through the QP pipeline", func() {
		prog, err := core.NewProgram(core.ProgramSpec{
			Variables: 2,
			P:         mat.NewSymDense(2, []float64{1, 0, 0, 1}),
			EqA:       mat.NewDense(1, 2, []float64{1, 1}),
			EqB:       mat.NewVecDense(1, []float64{2}),
		})
		Expect(err).NotTo(HaveOccurred())

		chain, err := planner.Plan(ctx, prog, reg, planner.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.Steps()).To(Equal([]string{
			"quadratic-canon", "qp-matrix-stuffing", solvers.KKTQPName,
		}))

		sol, err := chain.Solve(ctx, prog, false, false, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.Status).To(Equal(core.StatusOptimal))
		Expect(sol.Value).To(BeNumerically("~", 1, 1e-9))
		Expect(sol.Primal[0]).To(BeNumerically("~", 1, 1e-9))
		Expect(sol.Primal[1]).To(BeNumerically("~", 1, 1e-9))
		Expect(sol.DualEq[0]).To(BeNumerically("~", -1, 1e-9))
	})

	It("restores the objective sign of a maximization", func() {
		// maximize -1/2 x^2 + x peaks at x = 1 with value 1/2.
		prog := loadProgram(maximizeDocument)

		chain, err := planner.Plan(ctx, prog, reg, planner.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.Steps()).To(Equal([]string{
			"flip-objective", "quadratic-canon", "qp-matrix-stuffing", solvers.KKTQPName,
		}))

		sol, err := chain.Solve(ctx, prog, false, false, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sol.Status).To(Equal(core.StatusOptimal))
		Expect(sol.Value).To(BeNumerically("~", 0.5, 1e-9))
		Expect(sol.Primal[0]).To(BeNumerically("~", 1, 1e-9))
	})

	It("routes mixed-integer problems to the declared capable solver", func() {
		branching := solver.NewDeclared(solver.Descriptor{
			Name:       "branchqp",
			Family:     solver.FamilyQP,
			MIPCapable: true,
			Rank:       50,
		})
		Expect(reg.Register(branching)).To(Succeed())

		prog, err := core.NewProgram(core.ProgramSpec{
			Variables: 1,
			P:         mat.NewSymDense(1, []float64{1}),
			Integers:  []int{0},
		})
		Expect(err).NotTo(HaveOccurred())

		chain, err := planner.Plan(ctx, prog, reg, planner.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(chain.Backend().Describe().Name).To(Equal("branchqp"))

		// Declared solvers carry capability metadata only.
		_, err = chain.Solve(ctx, prog, false, false, nil)
		Expect(err).To(MatchError(solver.ErrNotExecutable))
	})

	It("reuses one planned chain across identically shaped problems", func() {
		build := func(rhs float64) *core.Program {
			prog, err := core.NewProgram(core.ProgramSpec{
				Variables: 2,
				P:         mat.NewSymDense(2, []float64{1, 0, 0, 1}),
				EqA:       mat.NewDense(1, 2, []float64{1, 1}),
				EqB:       mat.NewVecDense(1, []float64{rhs}),
			})
			Expect(err).NotTo(HaveOccurred())
			return prog
		}

		chain, err := planner.Plan(ctx, build(2), reg, planner.Options{})
		Expect(err).NotTo(HaveOccurred())

		for rhs, want := range map[float64]float64{2: 1, 4: 4, 6: 9} {
			sol, err := chain.Solve(ctx, build(rhs), false, false, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.Status).To(Equal(core.StatusOptimal))
			Expect(sol.Value).To(BeNumerically("~", want, 1e-9))
			Expect(sol.Primal[0]).To(BeNumerically("~", rhs/2, 1e-9))
		}
	})
})
