// Package cones derives the cone requirements of a problem from its atom
// inventory. Classification is table-driven: each cone kind owns a set of
// inducing atom kinds, so new atoms are added by table entry rather than by
// branching logic. The shipped defaults can be replaced wholesale through
// pkg/config, since the authoritative membership rules belong to the
// atom-library collaborator.
package cones

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/pkg/core"
)

// Table maps atom kinds to the cone each induces in the lowered conic form.
// An atom kind may appear in more than one set.
type Table struct {
	// SecondOrder lists atoms whose canonicalization emits second-order cones.
	SecondOrder sets.Set[core.AtomKind]
	// Exponential lists atoms whose canonicalization emits exponential cones.
	Exponential sets.Set[core.AtomKind]
	// Semidefinite lists atoms whose canonicalization emits PSD cones.
	Semidefinite sets.Set[core.AtomKind]
}

// DefaultTable returns the built-in classification.
func DefaultTable() Table {
	return Table{
		SecondOrder: sets.New(
			core.AtomNorm2, core.AtomSumSquares, core.AtomQuadForm,
			core.AtomQuadOverLin, core.AtomHuber, core.AtomGeoMean,
			core.AtomPower,
		),
		Exponential: sets.New(
			core.AtomExp, core.AtomLog, core.AtomLogSumExp, core.AtomEntr,
			core.AtomKLDiv, core.AtomLogistic, core.AtomLogDet,
		),
		Semidefinite: sets.New(
			core.AtomLambdaMax, core.AtomSigmaMax, core.AtomNormNuclear,
			core.AtomMatrixFrac, core.AtomLogDet,
		),
	}
}

// Required walks the problem's atom inventory once and returns the set of
// cone kinds any conic terminal solver must support. Pure, O(atoms).
func (t Table) Required(p core.Problem) sets.Set[core.ConeKind] {
	required := sets.New[core.ConeKind]()
	for _, atom := range p.Atoms() {
		if t.SecondOrder.Has(atom) {
			required.Insert(core.SecondOrderCone)
		}
		if t.Exponential.Has(atom) {
			required.Insert(core.ExponentialCone)
		}
		if t.Semidefinite.Has(atom) {
			required.Insert(core.PositiveSemidefiniteCone)
		}
	}
	return required
}

// Required applies the default table.
func Required(p core.Problem) sets.Set[core.ConeKind] {
	return DefaultTable().Required(p)
}
