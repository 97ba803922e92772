// Package solver defines the terminal backend abstraction and the capability
// registry the planner matches against.
//
// Key components:
//
//   - Backend: the adapter interface a concrete solver implements; it
//     consumes the lowered payload produced by the last reduction and
//     returns a raw result for the chain to invert
//   - Descriptor: static capability metadata (family, MIP capability,
//     supported cones, preference rank) consulted during planning
//   - Registry: the installed-backend inventory; Family() returns a family's
//     members in preference order (ascending rank, stable ties)
//   - Options: backend-specific solve options with coercing accessors
//   - NewDeclared: planning-only backends built from capability metadata,
//     used when a registry is assembled from a configuration document
//
// The registry is built once at process start and is read-only afterwards.
// Planning is then a pure function of a problem snapshot and the registry,
// which also makes synthetic registries trivial to assemble in tests.
//
// Example usage:
//
//	reg := solver.NewRegistry()
//	reg.MustRegister(solvers.NewKKTQP())
//	reg.MustRegister(solver.NewDeclared(solver.Descriptor{
//		Name:           "external-conic",
//		Family:         solver.FamilyConic,
//		SupportedCones: sets.New(core.SecondOrderCone),
//		Rank:           10,
//	}))
package solver
