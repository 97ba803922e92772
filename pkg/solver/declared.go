package solver

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotExecutable is returned when solve is attempted on a backend that was
// registered from capability metadata alone.
var ErrNotExecutable = errors.New("declared solver has no executable backend")

// declared is a planning-only backend: it carries capability metadata so the
// planner can route to it, but it cannot execute a solve. Registries loaded
// from configuration documents are built from declared entries.
type declared struct {
	d Descriptor
}

// NewDeclared wraps a descriptor as a planning-only Backend.
func NewDeclared(d Descriptor) Backend {
	return &declared{d: d}
}

func (s *declared) Describe() Descriptor { return s.d }

func (s *declared) SolveViaData(context.Context, any, bool, bool, Options) (any, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotExecutable, s.d.Name)
}
