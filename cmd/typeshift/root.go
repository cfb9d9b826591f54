package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	typeshiftlog "github.com/davetashner/typeshift/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for typeshift.
var rootCmd = &cobra.Command{
	Use:   "typeshift",
	Short: "Migrate per-target type-check settings to local configurations",
	Long: `Typeshift rolls static type checking out across a monorepo. It converts
the per-target type-check toggles scattered through TARGETS build files
into directory-scoped pyre configurations, suppressing any newly surfaced
type errors so previously passing code keeps passing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		typeshiftlog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)
}
