package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/convexopt/solverchain/api/v1alpha1"
	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/solvers"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/planner"
	"github.com/convexopt/solverchain/pkg/solver"
)

var (
	problemPath  string
	registryPath string
	solverName   string
	warmStart    bool
	solveOptions []string
)

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List installed and declared solver backends",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		for _, name := range reg.Installed() {
			b, _ := reg.Lookup(name)
			d := b.Describe()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tfamily=%s\trank=%d\tmip=%t\tcones=%s\n",
				d.Name, d.Family, d.Rank, d.MIPCapable, coneList(d))
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a solving chain for a problem without executing it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prog, reg, err := loadInputs()
		if err != nil {
			return err
		}
		ctx := logging.IntoContext(cmd.Context(), logger)
		chain, err := planner.Plan(ctx, prog, reg, plannerOptions())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(chain.Steps(), " -> "))
		return nil
	},
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Plan and execute a solving chain for a problem",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prog, reg, err := loadInputs()
		if err != nil {
			return err
		}
		ctx := logging.IntoContext(cmd.Context(), logger)
		chain, err := planner.Plan(ctx, prog, reg, plannerOptions())
		if err != nil {
			return err
		}

		sol, err := chain.Solve(ctx, prog, warmStart, cfg.Verbose, parseOptions(solveOptions))
		if err != nil {
			return err
		}
		return printSolution(cmd, chain, sol)
	},
}

func init() {
	for _, c := range []*cobra.Command{planCmd, solveCmd} {
		registerDocumentFlags(c.Flags())
		c.Flags().StringVar(&solverName, "solver", "", "request a specific terminal solver by name")
		_ = c.MarkFlagRequired("problem")
	}
	solversCmd.Flags().StringVar(&registryPath, "registry", "", "path to a SolverRegistry document of declared solvers")
	solveCmd.Flags().BoolVar(&warmStart, "warm-start", false, "pass the warm-start hint to the backend")
	solveCmd.Flags().StringArrayVar(&solveOptions, "option", nil, "backend option as key=value (repeatable)")
}

func registerDocumentFlags(fs *pflag.FlagSet) {
	fs.StringVar(&problemPath, "problem", "", "path to a Problem document (required)")
	fs.StringVar(&registryPath, "registry", "", "path to a SolverRegistry document of declared solvers")
}

func loadInputs() (*core.Program, *solver.Registry, error) {
	prog, err := loadProblem(problemPath)
	if err != nil {
		return nil, nil, err
	}
	reg, err := buildRegistry()
	if err != nil {
		return nil, nil, err
	}
	return prog, reg, nil
}

func loadProblem(path string) (*core.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading problem document: %w", err)
	}
	var doc v1alpha1.Problem
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing problem document: %w", err)
	}
	prog, err := doc.ToProgram()
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", doc.Metadata.Name, err)
	}
	return prog, nil
}

// buildRegistry layers configuration-declared solvers and an optional
// SolverRegistry document on top of the built-in backends.
func buildRegistry() (*solver.Registry, error) {
	reg := solvers.NewDefaultRegistry()
	if err := cfg.BuildRegistry(reg); err != nil {
		return nil, err
	}
	if registryPath == "" {
		return reg, nil
	}

	raw, err := os.ReadFile(registryPath)
	if err != nil {
		return nil, fmt.Errorf("reading registry document: %w", err)
	}
	var doc v1alpha1.SolverRegistry
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", doc.Metadata.Name, err)
	}
	for _, entry := range doc.Spec.Solvers {
		d, err := entry.ToDescriptor()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(solver.NewDeclared(d)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func plannerOptions() planner.Options {
	opts := cfg.PlannerOptions()
	if solverName != "" {
		opts.Solver = solverName
	}
	return opts
}

// parseOptions turns repeated key=value flags into backend options. Values
// stay strings; the typed getters on solver.Options coerce on read.
func parseOptions(pairs []string) solver.Options {
	if len(pairs) == 0 {
		return nil
	}
	opts := make(solver.Options, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			value = "true"
		}
		opts[key] = value
	}
	return opts
}

func coneList(d solver.Descriptor) string {
	kinds := sets.List(d.Cones())
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

type solutionOutput struct {
	Solver   string    `yaml:"solver"`
	Chain    []string  `yaml:"chain"`
	Status   string    `yaml:"status"`
	Value    float64   `yaml:"value"`
	Primal   []float64 `yaml:"primal,omitempty"`
	DualEq   []float64 `yaml:"dualEq,omitempty"`
	DualIneq []float64 `yaml:"dualIneq,omitempty"`
}

func printSolution(cmd *cobra.Command, chain *planner.SolvingChain, sol core.Solution) error {
	out := solutionOutput{
		Solver:   chain.Backend().Describe().Name,
		Chain:    chain.Steps(),
		Status:   string(sol.Status),
		Value:    sol.Value,
		Primal:   sol.Primal,
		DualEq:   sol.DualEq,
		DualIneq: sol.DualIneq,
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
