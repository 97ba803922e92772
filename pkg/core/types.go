package core

// ObjectiveSense is the optimization direction of a problem's objective.
type ObjectiveSense string

const (
	// Minimize indicates the objective value is to be minimized.
	Minimize ObjectiveSense = "minimize"
	// Maximize indicates the objective value is to be maximized.
	// Every reduction pipeline accepts only minimization, so a maximization
	// problem is always preceded by an objective-flip step.
	Maximize ObjectiveSense = "maximize"
)

// ConeKind identifies a cone class a conic backend may support.
type ConeKind string

const (
	// SecondOrderCone is the Lorentz cone { (t, x) : ||x||_2 <= t }.
	SecondOrderCone ConeKind = "soc"
	// ExponentialCone is the exponential cone closure { (x,y,z) : y*exp(x/y) <= z, y > 0 }.
	ExponentialCone ConeKind = "exp"
	// PositiveSemidefiniteCone is the cone of symmetric PSD matrices.
	PositiveSemidefiniteCone ConeKind = "psd"
)

// AtomKind names an atom appearing in a problem's expression inventory.
// The inventory is recorded by whatever frontend built the problem; the
// planner only membership-tests atom kinds against classification tables.
type AtomKind string

const (
	AtomAffine      AtomKind = "affine"
	AtomAbs         AtomKind = "abs"
	AtomMaximum     AtomKind = "maximum"
	AtomNorm1       AtomKind = "norm1"
	AtomNormInf     AtomKind = "norm_inf"
	AtomNorm2       AtomKind = "norm2"
	AtomSumSquares  AtomKind = "sum_squares"
	AtomQuadForm    AtomKind = "quad_form"
	AtomQuadOverLin AtomKind = "quad_over_lin"
	AtomHuber       AtomKind = "huber"
	AtomGeoMean     AtomKind = "geo_mean"
	AtomPower       AtomKind = "power"
	AtomExp         AtomKind = "exp"
	AtomLog         AtomKind = "log"
	AtomLogSumExp   AtomKind = "log_sum_exp"
	AtomEntr        AtomKind = "entr"
	AtomKLDiv       AtomKind = "kl_div"
	AtomLogistic    AtomKind = "logistic"
	AtomLogDet      AtomKind = "log_det"
	AtomLambdaMax   AtomKind = "lambda_max"
	AtomSigmaMax    AtomKind = "sigma_max"
	AtomNormNuclear AtomKind = "norm_nuc"
	AtomMatrixFrac  AtomKind = "matrix_frac"
)

// Status is the outcome classification of a solve, following the usual
// conic-solver vocabulary.
type Status string

const (
	StatusOptimal              Status = "optimal"
	StatusInfeasible           Status = "infeasible"
	StatusUnbounded            Status = "unbounded"
	StatusOptimalInaccurate    Status = "optimal_inaccurate"
	StatusInfeasibleInaccurate Status = "infeasible_inaccurate"
	StatusUnboundedInaccurate  Status = "unbounded_inaccurate"
	StatusError                Status = "solver_error"
)

// IsOK reports whether the status carries a usable primal solution.
func (s Status) IsOK() bool {
	return s == StatusOptimal || s == StatusOptimalInaccurate
}

// Solution is the problem-level result of running a solving chain: the raw
// backend output mapped back through every reduction's inverse transform.
type Solution struct {
	// Status classifies the solve outcome.
	Status Status
	// Value is the optimal objective value in the problem's original
	// orientation (sign restored for maximization problems).
	Value float64
	// Primal holds optimal variable values indexed by variable position
	// in the original problem. Nil unless Status.IsOK().
	Primal []float64
	// DualEq holds dual values for equality constraints, by row.
	// Nil when the backend does not produce duals.
	DualEq []float64
	// DualIneq holds dual values for inequality constraints, by row.
	DualIneq []float64
	// Attr carries backend-specific attributes such as iteration counts
	// and solve time.
	Attr map[string]any
}
