// solverchain plans and executes reduction pipelines that lower convex
// optimization problems onto installed solver backends.
package main

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/convexopt/solverchain/internal/logging"
	"github.com/convexopt/solverchain/internal/metrics"
	"github.com/convexopt/solverchain/pkg/config"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger logr.Logger
)

var rootCmd = &cobra.Command{
	Use:   "solverchain",
	Short: "Plan and run solving chains for convex optimization problems",
	Long: `solverchain classifies a problem document, picks a terminal solver from
the installed backends, and composes the reduction pipeline that lowers
the problem into that solver's native form.

Problems and solver capability registries are YAML documents with
apiVersion ` + "`solverchain.convexopt.io/v1alpha1`" + `.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Verbose = true
		}
		logger = logging.NewLogger(cfg.Verbose)
		metrics.MustRegister(prometheus.DefaultRegisterer)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to a configuration file (default: ./solverchain.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug and trace logging")
	rootCmd.AddCommand(solversCmd, planCmd, solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
