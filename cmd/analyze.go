package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
	"github.com/KaramelBytes/datastat-cli/internal/dispatch"
)

var (
	histWidth int
	histGlyph string
)

var statsCmd = &cobra.Command{
	Use:   "stats <file> <column>",
	Short: "Mean, median, mode and sample standard deviation of a column",
	Args:  requireFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.CommandStats, args[1:])
	},
}

var histogramCmd = &cobra.Command{
	Use:   "histogram <file> <column> [bins]",
	Short: "Text histogram of a column over equal-width bins (default from config, 10)",
	Args:  requireFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyBarFlags(cmd)
		return runAnalysis(cmd, args[0], analysis.CommandHistogram, args[1:])
	},
}

var correlationCmd = &cobra.Command{
	Use:   "correlation <file> <column1> <column2>",
	Short: "Pearson correlation between two columns",
	Args:  requireFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.CommandCorrelation, args[1:])
	},
}

var outliersCmd = &cobra.Command{
	Use:   "outliers <file> <column> [threshold]",
	Short: "Rows whose z-score magnitude reaches the threshold (default from config, 2.0)",
	Args:  requireFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, args[0], analysis.CommandOutliers, args[1:])
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file> <command> <column> [options...]",
	Short: "Run an analysis by name: " + strings.Join(dispatch.Commands(), ", "),
	Long: `run takes the command as a positional argument, e.g.

  datastat run data.csv histogram score 5
  datastat run data.csv correlation height weight`,
	Args: requireFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		command := ""
		if len(args) > 1 {
			command = args[1]
		}
		var rest []string
		if len(args) > 2 {
			rest = args[2:]
		}
		applyBarFlags(cmd)
		return runAnalysis(cmd, args[0], command, rest)
	},
}

// applyBarFlags lets --width and --glyph override the configured histogram bars.
func applyBarFlags(cmd *cobra.Command) {
	c := settings()
	if cmd.Flags().Changed("width") && histWidth >= 0 {
		c.BarWidth = histWidth
	}
	if cmd.Flags().Changed("glyph") && histGlyph != "" {
		c.BarGlyph = histGlyph
	}
}

func init() {
	rootCmd.AddCommand(statsCmd, histogramCmd, correlationCmd, outliersCmd, runCmd)
	for _, c := range []*cobra.Command{histogramCmd, runCmd} {
		c.Flags().IntVar(&histWidth, "width", 0, "scale histogram bars to at most N glyphs (0 = one glyph per count)")
		c.Flags().StringVar(&histGlyph, "glyph", "#", "glyph used to draw histogram bars")
	}
}
