package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/ptr"

	"github.com/convexopt/solverchain/pkg/cones"
	"github.com/convexopt/solverchain/pkg/core"
	"github.com/convexopt/solverchain/pkg/planner"
	"github.com/convexopt/solverchain/pkg/solver"
)

const (
	// EnvPrefix is the prefix of environment variable overrides, e.g.
	// SOLVERCHAIN_PLANNER_DEFAULTSOLVER.
	EnvPrefix = "SOLVERCHAIN"

	// DefaultConfigName is the config file basename searched for when no
	// explicit path is given.
	DefaultConfigName = "solverchain"

	// DefaultDeclaredRank is the preference rank assumed for declared
	// solvers that omit one. It sits behind the built-in backends so
	// configuration entries do not shadow executable solvers by accident.
	DefaultDeclaredRank = 100
)

// Config is the process configuration, loaded from file, environment and
// defaults in that order of precedence.
type Config struct {
	// Verbose enables DEBUG/TRACE logging.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`

	// Planner holds planning defaults.
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`

	// Solvers lists declared (planning-only) backends layered on top of
	// the built-in registry.
	Solvers []DeclaredSolver `mapstructure:"solvers" yaml:"solvers"`

	// Cones overrides the atom-to-cone classification tables.
	Cones ConeTableConfig `mapstructure:"cones" yaml:"cones"`
}

// PlannerConfig holds planning defaults applied when a caller does not
// specify them per plan.
type PlannerConfig struct {
	// DefaultSolver, when set, requests that terminal solver by name.
	DefaultSolver string `mapstructure:"defaultSolver" yaml:"defaultSolver"`

	// Candidates restricts planning to the listed solver names.
	Candidates []string `mapstructure:"candidates" yaml:"candidates"`
}

// DeclaredSolver is a configuration-declared backend's capability metadata.
// Optional fields are pointers so omitted values inherit defaults.
type DeclaredSolver struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Family     string   `mapstructure:"family" yaml:"family"`
	MIPCapable *bool    `mapstructure:"mipCapable" yaml:"mipCapable"`
	Cones      []string `mapstructure:"cones" yaml:"cones"`
	Rank       *int     `mapstructure:"rank" yaml:"rank"`
}

// ConeTableConfig replaces classification table memberships. A nil list
// keeps the built-in membership for that cone; an empty list clears it.
type ConeTableConfig struct {
	SecondOrder  []string `mapstructure:"secondOrder" yaml:"secondOrder"`
	Exponential  []string `mapstructure:"exponential" yaml:"exponential"`
	Semidefinite []string `mapstructure:"semidefinite" yaml:"semidefinite"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{}
}

// Load reads configuration from the given file path (or, when empty, from a
// solverchain.yaml found in the working directory), overlays environment
// variables with the SOLVERCHAIN_ prefix, and validates the result. A
// missing implicit config file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("verbose", false)
	v.SetDefault("planner.defaultSolver", "")
	v.SetDefault("planner.candidates", []string{})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var validConeNames = sets.New(
	string(core.SecondOrderCone),
	string(core.ExponentialCone),
	string(core.PositiveSemidefiniteCone),
)

// Validate checks every declared solver and cone override.
func (c *Config) Validate() error {
	seen := sets.New[string]()
	for i, s := range c.Solvers {
		if seen.Has(s.Name) {
			return fmt.Errorf("solvers[%d]: duplicate solver name %q", i, s.Name)
		}
		seen.Insert(s.Name)
		if _, err := s.ToDescriptor(); err != nil {
			return fmt.Errorf("solvers[%d]: %w", i, err)
		}
	}
	return nil
}

// ToDescriptor converts the declared entry to capability metadata, applying
// defaults for omitted optional fields.
func (s DeclaredSolver) ToDescriptor() (solver.Descriptor, error) {
	coneSet := sets.New[core.ConeKind]()
	for _, name := range s.Cones {
		if !validConeNames.Has(name) {
			return solver.Descriptor{}, fmt.Errorf("solver %s: unknown cone kind %q", s.Name, name)
		}
		coneSet.Insert(core.ConeKind(name))
	}
	d := solver.Descriptor{
		Name:           s.Name,
		Family:         solver.Family(s.Family),
		MIPCapable:     ptr.Deref(s.MIPCapable, false),
		SupportedCones: coneSet,
		Rank:           ptr.Deref(s.Rank, DefaultDeclaredRank),
	}
	if err := d.Validate(); err != nil {
		return solver.Descriptor{}, err
	}
	return d, nil
}

// ConeTable builds the effective classification table: the built-in defaults
// with any configured membership list replacing its set wholesale.
func (c *Config) ConeTable() cones.Table {
	table := cones.DefaultTable()
	if c.Cones.SecondOrder != nil {
		table.SecondOrder = toAtomSet(c.Cones.SecondOrder)
	}
	if c.Cones.Exponential != nil {
		table.Exponential = toAtomSet(c.Cones.Exponential)
	}
	if c.Cones.Semidefinite != nil {
		table.Semidefinite = toAtomSet(c.Cones.Semidefinite)
	}
	return table
}

func toAtomSet(names []string) sets.Set[core.AtomKind] {
	out := sets.New[core.AtomKind]()
	for _, n := range names {
		out.Insert(core.AtomKind(n))
	}
	return out
}

// BuildRegistry registers every declared solver onto base. Validation
// errors and name collisions with already-registered backends surface
// unchanged.
func (c *Config) BuildRegistry(base *solver.Registry) error {
	for _, s := range c.Solvers {
		d, err := s.ToDescriptor()
		if err != nil {
			return err
		}
		if err := base.Register(solver.NewDeclared(d)); err != nil {
			return err
		}
	}
	return nil
}

// PlannerOptions assembles the planner options implied by the configuration.
func (c *Config) PlannerOptions() planner.Options {
	table := c.ConeTable()
	return planner.Options{
		Solver:     c.Planner.DefaultSolver,
		Candidates: c.Planner.Candidates,
		ConeTable:  &table,
	}
}
