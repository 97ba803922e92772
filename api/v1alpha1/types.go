// Package v1alpha1 defines the versioned, serializable document schema for
// problems and solver registries, plus validation and conversion to the
// in-memory domain types. Documents are plain YAML/JSON; there is no API
// server behind them.
package v1alpha1

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/solver"
)

const (
	// APIVersion is the schema version documents must declare.
	APIVersion = "solverchain.convexopt.io/v1alpha1"
	// ProblemKind is the kind of optimization problem documents.
	ProblemKind = "Problem"
	// SolverRegistryKind is the kind of solver capability documents.
	SolverRegistryKind = "SolverRegistry"
)

// Metadata names a document.
type Metadata struct {
	Name string `yaml:"name" json:"name"`
}

// Problem is a serializable optimization problem document.
type Problem struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Spec       ProblemSpec `yaml:"spec" json:"spec"`
}

// ProblemSpec describes the matrix-level problem
// minimize/maximize 1/2 x'Qd x + c'x + r under the listed constraints.
type ProblemSpec struct {
	// Variables is the number of decision variables.
	Variables int `yaml:"variables" json:"variables"`

	// Sense is "minimize" or "maximize"; defaults to minimize.
	Sense string `yaml:"sense,omitempty" json:"sense,omitempty"`

	// Objective holds the objective terms.
	Objective Objective `yaml:"objective" json:"objective"`

	// Equalities lists rows coefficients'x == rhs.
	Equalities []LinearConstraint `yaml:"equalities,omitempty" json:"equalities,omitempty"`

	// Inequalities lists rows coefficients'x <= rhs.
	Inequalities []LinearConstraint `yaml:"inequalities,omitempty" json:"inequalities,omitempty"`

	// SecondOrderCones lists constraints ||A x + b||_2 <= c'x + d.
	SecondOrderCones []SOCConstraint `yaml:"secondOrderCones,omitempty" json:"secondOrderCones,omitempty"`

	// IntegerIndices lists integer-constrained variable positions.
	IntegerIndices []int `yaml:"integerIndices,omitempty" json:"integerIndices,omitempty"`

	// Atoms is the recorded atom inventory. Empty means the inventory is
	// inferred from the program structure.
	Atoms []string `yaml:"atoms,omitempty" json:"atoms,omitempty"`
}

// Objective holds the objective terms of 1/2 x'Qd x + c'x + r.
type Objective struct {
	// Quadratic is the symmetric matrix Qd, row major. Omit for linear.
	Quadratic [][]float64 `yaml:"quadratic,omitempty" json:"quadratic,omitempty"`
	// Linear is the coefficient vector c.
	Linear []float64 `yaml:"linear,omitempty" json:"linear,omitempty"`
	// Constant is the offset r.
	Constant float64 `yaml:"constant,omitempty" json:"constant,omitempty"`
}

// LinearConstraint is one linear row.
type LinearConstraint struct {
	Coefficients []float64 `yaml:"coefficients" json:"coefficients"`
	RHS          float64   `yaml:"rhs" json:"rhs"`
}

// SOCConstraint is one second-order-cone block ||A x + b||_2 <= c'x + d.
type SOCConstraint struct {
	A [][]float64 `yaml:"a" json:"a"`
	B []float64   `yaml:"b" json:"b"`
	C []float64   `yaml:"c" json:"c"`
	D float64     `yaml:"d,omitempty" json:"d,omitempty"`
}

// Validate checks the document's envelope and dimensional consistency.
func (p *Problem) Validate() error {
	if p.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion %q, want %q", p.APIVersion, APIVersion)
	}
	if p.Kind != ProblemKind {
		return fmt.Errorf("unsupported kind %q, want %q", p.Kind, ProblemKind)
	}
	s := &p.Spec
	if s.Variables < 1 {
		return fmt.Errorf("spec.variables must be >= 1, got %d", s.Variables)
	}
	if s.Sense != "" && s.Sense != string(core.Minimize) && s.Sense != string(core.Maximize) {
		return fmt.Errorf("spec.sense must be %q or %q, got %q", core.Minimize, core.Maximize, s.Sense)
	}
	if len(s.Objective.Linear) != 0 && len(s.Objective.Linear) != s.Variables {
		return fmt.Errorf("spec.objective.linear has %d entries, want %d", len(s.Objective.Linear), s.Variables)
	}
	if q := s.Objective.Quadratic; q != nil {
		if len(q) != s.Variables {
			return fmt.Errorf("spec.objective.quadratic has %d rows, want %d", len(q), s.Variables)
		}
		for i, row := range q {
			if len(row) != s.Variables {
				return fmt.Errorf("spec.objective.quadratic row %d has %d entries, want %d", i, len(row), s.Variables)
			}
		}
	}
	for i, row := range s.Equalities {
		if len(row.Coefficients) != s.Variables {
			return fmt.Errorf("spec.equalities[%d] has %d coefficients, want %d", i, len(row.Coefficients), s.Variables)
		}
	}
	for i, row := range s.Inequalities {
		if len(row.Coefficients) != s.Variables {
			return fmt.Errorf("spec.inequalities[%d] has %d coefficients, want %d", i, len(row.Coefficients), s.Variables)
		}
	}
	for i, soc := range s.SecondOrderCones {
		if len(soc.C) != s.Variables {
			return fmt.Errorf("spec.secondOrderCones[%d].c has %d entries, want %d", i, len(soc.C), s.Variables)
		}
		if len(soc.B) != len(soc.A) {
			return fmt.Errorf("spec.secondOrderCones[%d].b has %d entries, want %d rows", i, len(soc.B), len(soc.A))
		}
		for j, row := range soc.A {
			if len(row) != s.Variables {
				return fmt.Errorf("spec.secondOrderCones[%d].a row %d has %d entries, want %d", i, j, len(row), s.Variables)
			}
		}
	}
	for _, idx := range s.IntegerIndices {
		if idx < 0 || idx >= s.Variables {
			return fmt.Errorf("spec.integerIndices entry %d out of range [0,%d)", idx, s.Variables)
		}
	}
	return nil
}

// ToProgram converts a validated document to the in-memory carrier. A
// second-order-cone constraint contributes a norm atom to an inferred
// inventory so cone extraction sees it.
func (p *Problem) ToProgram() (*core.Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &p.Spec

	spec := core.ProgramSpec{
		Variables: s.Variables,
		Sense:     core.ObjectiveSense(s.Sense),
		R:         s.Objective.Constant,
	}
	if s.Objective.Quadratic != nil {
		spec.P = toSym(s.Objective.Quadratic)
	}
	if s.Objective.Linear != nil {
		spec.Q = mat.NewVecDense(s.Variables, append([]float64(nil), s.Objective.Linear...))
	}
	spec.EqA, spec.EqB = toRows(s.Equalities, s.Variables)
	spec.InA, spec.InB = toRows(s.Inequalities, s.Variables)
	for _, soc := range s.SecondOrderCones {
		spec.SOC = append(spec.SOC, core.SOCBlock{
			A: toDense(soc.A, s.Variables),
			B: mat.NewVecDense(len(soc.B), append([]float64(nil), soc.B...)),
			C: mat.NewVecDense(s.Variables, append([]float64(nil), soc.C...)),
			D: soc.D,
		})
	}
	spec.Integers = append([]int(nil), s.IntegerIndices...)
	for _, a := range s.Atoms {
		spec.Atoms = append(spec.Atoms, core.AtomKind(a))
	}
	return core.NewProgram(spec)
}

func toSym(rows [][]float64) *mat.SymDense {
	n := len(rows)
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Symmetrize off-diagonal pairs so mildly asymmetric input
			// yields the equivalent symmetric quadratic form.
			out.SetSym(i, j, (rows[i][j]+rows[j][i])/2)
		}
	}
	return out
}

func toDense(rows [][]float64, cols int) *mat.Dense {
	out := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}

func toRows(constraints []LinearConstraint, cols int) (*mat.Dense, *mat.VecDense) {
	if len(constraints) == 0 {
		return nil, nil
	}
	a := mat.NewDense(len(constraints), cols, nil)
	b := mat.NewVecDense(len(constraints), nil)
	for i, row := range constraints {
		a.SetRow(i, row.Coefficients)
		b.SetVec(i, row.RHS)
	}
	return a, b
}

// SolverRegistry is a serializable solver capability document. Entries
// become planning-only declared backends when assembled into a registry.
type SolverRegistry struct {
	APIVersion string       `yaml:"apiVersion" json:"apiVersion"`
	Kind       string       `yaml:"kind" json:"kind"`
	Metadata   Metadata     `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Spec       RegistrySpec `yaml:"spec" json:"spec"`
}

// RegistrySpec lists declared solvers.
type RegistrySpec struct {
	Solvers []SolverEntry `yaml:"solvers" json:"solvers"`
}

// SolverEntry is one declared solver's capability metadata.
type SolverEntry struct {
	Name       string   `yaml:"name" json:"name"`
	Family     string   `yaml:"family" json:"family"`
	MIPCapable bool     `yaml:"mipCapable,omitempty" json:"mipCapable,omitempty"`
	Cones      []string `yaml:"cones,omitempty" json:"cones,omitempty"`
	Rank       int      `yaml:"rank,omitempty" json:"rank,omitempty"`
}

var validCones = sets.New(
	string(core.SecondOrderCone),
	string(core.ExponentialCone),
	string(core.PositiveSemidefiniteCone),
)

// Validate checks the document's envelope and every entry.
func (r *SolverRegistry) Validate() error {
	if r.APIVersion != APIVersion {
		return fmt.Errorf("unsupported apiVersion %q, want %q", r.APIVersion, APIVersion)
	}
	if r.Kind != SolverRegistryKind {
		return fmt.Errorf("unsupported kind %q, want %q", r.Kind, SolverRegistryKind)
	}
	seen := sets.New[string]()
	for i, entry := range r.Spec.Solvers {
		if seen.Has(entry.Name) {
			return fmt.Errorf("spec.solvers[%d]: duplicate solver name %q", i, entry.Name)
		}
		seen.Insert(entry.Name)
		if _, err := entry.ToDescriptor(); err != nil {
			return fmt.Errorf("spec.solvers[%d]: %w", i, err)
		}
	}
	return nil
}

// ToDescriptor converts an entry to capability metadata.
func (e SolverEntry) ToDescriptor() (solver.Descriptor, error) {
	cones := sets.New[core.ConeKind]()
	for _, c := range e.Cones {
		if !validCones.Has(c) {
			return solver.Descriptor{}, fmt.Errorf("solver %s: unknown cone kind %q", e.Name, c)
		}
		cones.Insert(core.ConeKind(c))
	}
	d := solver.Descriptor{
		Name:           e.Name,
		Family:         solver.Family(e.Family),
		MIPCapable:     e.MIPCapable,
		SupportedCones: cones,
		Rank:           e.Rank,
	}
	if err := d.Validate(); err != nil {
		return solver.Descriptor{}, err
	}
	return d, nil
}
