package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/pkg/core"
)

// Family is the pipeline class a backend terminates.
type Family string

const (
	// FamilyQP marks backends accepting stuffed quadratic programs.
	FamilyQP Family = "qp"
	// FamilyConic marks backends accepting stuffed cone programs.
	FamilyConic Family = "conic"
)

// Descriptor is the static capability metadata of a backend. It is what the
// planner matches against; it never changes after registration.
type Descriptor struct {
	// Name uniquely identifies the backend within a registry.
	Name string
	// Family is the pipeline class the backend terminates.
	Family Family
	// MIPCapable reports whether the backend accepts integer variables.
	MIPCapable bool
	// SupportedCones lists the cone kinds a conic backend accepts beyond
	// plain linear rows. Ignored for QP backends.
	SupportedCones sets.Set[core.ConeKind]
	// Rank orders backends within a family; lower rank is preferred.
	Rank int
}

// Validate checks the descriptor is well-formed for registration.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor needs a name")
	}
	if d.Family != FamilyQP && d.Family != FamilyConic {
		return fmt.Errorf("solver %s: unknown family %q", d.Name, d.Family)
	}
	if d.Rank < 0 {
		return fmt.Errorf("solver %s: rank must be >= 0, got %d", d.Name, d.Rank)
	}
	return nil
}

// Cones returns the supported cone set, never nil.
func (d Descriptor) Cones() sets.Set[core.ConeKind] {
	if d.SupportedCones == nil {
		return sets.New[core.ConeKind]()
	}
	return d.SupportedCones
}

// Backend is a terminal solver adapter. SolveViaData consumes the
// backend-specific payload produced by the last reduction before the
// terminal step and returns a raw, untranslated result; the chain's
// inverse transforms map it back to a core.Solution.
//
// The call may be long-running and CPU-bound; ctx is threaded for logging
// and is not an internal cancellation hook. Callers wanting timeouts must
// wrap the call themselves.
type Backend interface {
	// Describe returns the backend's capability metadata.
	Describe() Descriptor
	// SolveViaData runs the native solve on lowered data.
	SolveViaData(ctx context.Context, data any, warmStart, verbose bool, opts Options) (any, error)
}

// Options carries backend-specific solve options. Keys are backend-defined;
// values are coerced on access so callers can pass strings from flags or
// config files.
type Options map[string]any

// Bool returns the option coerced to bool, or def when absent.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		return cast.ToBool(v)
	}
	return def
}

// Int returns the option coerced to int, or def when absent.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		return cast.ToInt(v)
	}
	return def
}

// Float64 returns the option coerced to float64, or def when absent.
func (o Options) Float64(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		return cast.ToFloat64(v)
	}
	return def
}

// String returns the option coerced to string, or def when absent.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		return cast.ToString(v)
	}
	return def
}

// Duration returns the option coerced to a duration, or def when absent.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	if v, ok := o[key]; ok {
		return cast.ToDuration(v)
	}
	return def
}
