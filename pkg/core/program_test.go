package core

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"k8s.io/apimachinery/pkg/util/sets"
)

func TestNewProgramValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    ProgramSpec
		wantErr bool
	}{
		{
			name:    "no variables",
			spec:    ProgramSpec{Variables: 0},
			wantErr: true,
		},
		{
			name:    "unknown sense",
			spec:    ProgramSpec{Variables: 1, Sense: "fastest"},
			wantErr: true,
		},
		{
			name: "linear term dimension mismatch",
			spec: ProgramSpec{
				Variables: 2,
				Q:         mat.NewVecDense(3, nil),
			},
			wantErr: true,
		},
		{
			name: "quadratic term dimension mismatch",
			spec: ProgramSpec{
				Variables: 3,
				P:         mat.NewSymDense(2, nil),
			},
			wantErr: true,
		},
		{
			name: "equality matrix without right-hand side",
			spec: ProgramSpec{
				Variables: 2,
				EqA:       mat.NewDense(1, 2, []float64{1, 1}),
			},
			wantErr: true,
		},
		{
			name: "inequality row count mismatch",
			spec: ProgramSpec{
				Variables: 2,
				InA:       mat.NewDense(2, 2, nil),
				InB:       mat.NewVecDense(3, nil),
			},
			wantErr: true,
		},
		{
			name: "integer index out of range",
			spec: ProgramSpec{
				Variables: 2,
				Integers:  []int{2},
			},
			wantErr: true,
		},
		{
			name: "duplicate integer index",
			spec: ProgramSpec{
				Variables: 2,
				Integers:  []int{0, 0},
			},
			wantErr: true,
		},
		{
			name: "minimal linear program",
			spec: ProgramSpec{
				Variables: 2,
				Q:         mat.NewVecDense(2, []float64{1, 1}),
			},
		},
		{
			name: "cone block dimension mismatch",
			spec: ProgramSpec{
				Variables: 2,
				SOC: []SOCBlock{{
					A: mat.NewDense(1, 3, nil),
					B: mat.NewVecDense(1, nil),
					C: mat.NewVecDense(2, nil),
				}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProgram(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProgram() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProgramConvexity(t *testing.T) {
	psd := mat.NewSymDense(2, []float64{2, 0, 0, 1})
	indefinite := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	singular := mat.NewSymDense(2, []float64{1, 0, 0, 0})

	tests := []struct {
		name string
		spec ProgramSpec
		want bool
	}{
		{"linear is convex", ProgramSpec{Variables: 2}, true},
		{"psd quadratic minimization", ProgramSpec{Variables: 2, P: psd}, true},
		{"singular psd quadratic", ProgramSpec{Variables: 2, P: singular}, true},
		{"indefinite quadratic", ProgramSpec{Variables: 2, P: indefinite}, false},
		{
			"concave maximization",
			ProgramSpec{Variables: 2, Sense: Maximize, P: negated(psd)},
			true,
		},
		{
			"convex maximization",
			ProgramSpec{Variables: 2, Sense: Maximize, P: psd},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := NewProgram(tt.spec)
			if err != nil {
				t.Fatalf("NewProgram() failed: %v", err)
			}
			if got := prog.IsConvex(); got != tt.want {
				t.Errorf("IsConvex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func negated(s *mat.SymDense) *mat.SymDense {
	out := mat.NewSymDense(s.SymmetricDim(), nil)
	out.ScaleSym(-1, s)
	return out
}

func TestProgramQuadraticShape(t *testing.T) {
	socBlock := SOCBlock{
		A: mat.NewDense(1, 2, []float64{1, 0}),
		B: mat.NewVecDense(1, nil),
		C: mat.NewVecDense(2, []float64{0, 1}),
	}

	tests := []struct {
		name string
		spec ProgramSpec
		want bool
	}{
		{"linear", ProgramSpec{Variables: 2}, true},
		{
			"quadratic objective",
			ProgramSpec{Variables: 2, P: mat.NewSymDense(2, []float64{1, 0, 0, 1})},
			true,
		},
		{
			"cone block disqualifies",
			ProgramSpec{Variables: 2, SOC: []SOCBlock{socBlock}},
			false,
		},
		{
			"disqualifying atom",
			ProgramSpec{Variables: 2, Atoms: []AtomKind{AtomAffine, AtomExp}},
			false,
		},
		{
			"qp atom override admits exp",
			ProgramSpec{
				Variables: 2,
				Atoms:     []AtomKind{AtomAffine, AtomExp},
				QPAtoms:   sets.New(AtomAffine, AtomExp),
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := NewProgram(tt.spec)
			if err != nil {
				t.Fatalf("NewProgram() failed: %v", err)
			}
			if got := prog.IsQuadratic(); got != tt.want {
				t.Errorf("IsQuadratic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgramAtomInference(t *testing.T) {
	prog, err := NewProgram(ProgramSpec{
		Variables: 2,
		P:         mat.NewSymDense(2, []float64{1, 0, 0, 1}),
		SOC: []SOCBlock{{
			A: mat.NewDense(1, 2, []float64{1, 0}),
			B: mat.NewVecDense(1, nil),
			C: mat.NewVecDense(2, []float64{0, 1}),
		}},
	})
	if err != nil {
		t.Fatalf("NewProgram() failed: %v", err)
	}
	got := sets.New(prog.Atoms()...)
	want := sets.New(AtomAffine, AtomQuadForm, AtomNorm2)
	if !got.Equal(want) {
		t.Errorf("inferred atoms = %v, want %v", sets.List(got), sets.List(want))
	}
}

func TestProgramNegated(t *testing.T) {
	prog, err := NewProgram(ProgramSpec{
		Variables: 2,
		Sense:     Maximize,
		P:         mat.NewSymDense(2, []float64{-2, 0, 0, -2}),
		Q:         mat.NewVecDense(2, []float64{1, -1}),
		R:         3,
	})
	if err != nil {
		t.Fatalf("NewProgram() failed: %v", err)
	}

	neg := prog.Negated()
	if neg.ObjectiveSense() != Minimize {
		t.Errorf("Negated().ObjectiveSense() = %v, want %v", neg.ObjectiveSense(), Minimize)
	}
	p, q, r := neg.Objective()
	if p.At(0, 0) != 2 || p.At(1, 1) != 2 {
		t.Errorf("negated quadratic term diagonal = (%v, %v), want (2, 2)", p.At(0, 0), p.At(1, 1))
	}
	if q.AtVec(0) != -1 || q.AtVec(1) != 1 {
		t.Errorf("negated linear term = (%v, %v), want (-1, 1)", q.AtVec(0), q.AtVec(1))
	}
	if r != -3 {
		t.Errorf("negated constant = %v, want -3", r)
	}
	if !neg.IsConvex() {
		t.Error("negated concave maximization should be a convex minimization")
	}
}

func TestProgramMixedInteger(t *testing.T) {
	cont, _ := NewProgram(ProgramSpec{Variables: 2})
	if cont.IsMixedInteger() {
		t.Error("program without integer indices reported mixed-integer")
	}
	mip, _ := NewProgram(ProgramSpec{Variables: 2, Integers: []int{1}})
	if !mip.IsMixedInteger() {
		t.Error("program with integer indices not reported mixed-integer")
	}
}
