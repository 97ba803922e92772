// Package config provides configuration management for the solver-chain
// planner and CLI.
//
// Configuration Types:
//
//   - Config: top-level process settings (verbosity, planner defaults,
//     declared solvers, cone-table overrides)
//   - PlannerConfig: default solver request and candidate restriction
//   - DeclaredSolver: capability metadata for planning-only backends
//   - ConeTableConfig: replacement memberships for the atom-to-cone
//     classification tables
//
// Configuration Sources:
//
//  1. Environment variables with the SOLVERCHAIN_ prefix (highest priority)
//  2. A YAML config file (explicit path or ./solverchain.yaml)
//  3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	reg := solvers.NewDefaultRegistry()
//	if err := cfg.BuildRegistry(reg); err != nil {
//	    return err
//	}
//	chain, err := planner.Plan(ctx, prog, reg, cfg.PlannerOptions())
package config
