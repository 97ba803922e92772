package cones

import (
	"testing"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/pkg/core"
)

// atomsOnly implements core.Problem with a fixed atom inventory; the
// extractor must never consult the other predicates.
type atomsOnly []core.AtomKind

func (a atomsOnly) IsConvex() bool                      { return true }
func (a atomsOnly) IsMixedInteger() bool                { return false }
func (a atomsOnly) IsQuadratic() bool                   { return false }
func (a atomsOnly) ObjectiveSense() core.ObjectiveSense { return core.Minimize }
func (a atomsOnly) Atoms() []core.AtomKind              { return a }

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		atoms []core.AtomKind
		want  sets.Set[core.ConeKind]
	}{
		{
			name:  "empty inventory needs no cones",
			atoms: nil,
			want:  sets.New[core.ConeKind](),
		},
		{
			name:  "affine only needs no cones",
			atoms: []core.AtomKind{core.AtomAffine, core.AtomAbs},
			want:  sets.New[core.ConeKind](),
		},
		{
			name:  "norm induces second-order",
			atoms: []core.AtomKind{core.AtomAffine, core.AtomNorm2},
			want:  sets.New(core.SecondOrderCone),
		},
		{
			name:  "log induces exponential",
			atoms: []core.AtomKind{core.AtomLog},
			want:  sets.New(core.ExponentialCone),
		},
		{
			name:  "lambda_max induces semidefinite",
			atoms: []core.AtomKind{core.AtomLambdaMax},
			want:  sets.New(core.PositiveSemidefiniteCone),
		},
		{
			name:  "log_det induces exponential and semidefinite",
			atoms: []core.AtomKind{core.AtomLogDet},
			want:  sets.New(core.ExponentialCone, core.PositiveSemidefiniteCone),
		},
		{
			name: "mixed inventory unions all matches",
			atoms: []core.AtomKind{
				core.AtomAffine, core.AtomSumSquares, core.AtomExp, core.AtomNormNuclear,
			},
			want: sets.New(
				core.SecondOrderCone, core.ExponentialCone, core.PositiveSemidefiniteCone,
			),
		},
		{
			name:  "duplicate atoms do not duplicate requirements",
			atoms: []core.AtomKind{core.AtomNorm2, core.AtomNorm2, core.AtomHuber},
			want:  sets.New(core.SecondOrderCone),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Required(atomsOnly(tt.atoms))
			if !got.Equal(tt.want) {
				t.Errorf("Required() = %v, want %v", sets.List(got), sets.List(tt.want))
			}
		})
	}
}

func TestCustomTable(t *testing.T) {
	table := Table{
		SecondOrder:  sets.New(core.AtomAbs),
		Exponential:  sets.New[core.AtomKind](),
		Semidefinite: sets.New[core.AtomKind](),
	}

	got := table.Required(atomsOnly{core.AtomAbs, core.AtomNorm2})
	if !got.Equal(sets.New(core.SecondOrderCone)) {
		t.Errorf("custom table Required() = %v, want [soc] only", sets.List(got))
	}
}
