package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datastat-cli/internal/config"
	"github.com/KaramelBytes/datastat-cli/internal/dispatch"
	"github.com/KaramelBytes/datastat-cli/internal/loader"
	"github.com/KaramelBytes/datastat-cli/internal/render"
	"github.com/KaramelBytes/datastat-cli/internal/utils"
)

var (
	cfgFile string
	debug   bool
	// Input flags (override config if set)
	flagDelimiter  string
	flagDecimal    string
	flagThousands  string
	flagSheetName  string
	flagSheetIndex int
	flagMaxRows    int
	// Output flags
	flagFormat  string
	flagOutput  string
	flagNoColor bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datastat",
	Short: "datastat: descriptive statistics for CSV/TSV/XLSX columns",
	Long: `datastat loads a tabular file and computes summary statistics, a text histogram,
a Pearson correlation, or z-score outliers for the named column(s).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.datastat/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug output")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	pf.StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|',' (auto-detect if omitted)")
	pf.StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to read")
	pf.IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	pf.IntVar(&flagMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	pf.StringVar(&flagFormat, "format", "", "output format: text | json | yaml (default from config)")
	pf.StringVarP(&flagOutput, "output", "o", "", "write the result to this file instead of stdout")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("decimal") {
		cfg.DecimalSeparator = flagDecimal
	}
	if f.Changed("thousands") {
		cfg.ThousandsSeparator = flagThousands
	}
	if f.Changed("max-rows") && flagMaxRows >= 0 {
		cfg.MaxRows = flagMaxRows
	}
	if f.Changed("format") {
		cfg.OutputFormat = flagFormat
	}
	if flagNoColor {
		cfg.Color = false
	}
}

// settings returns the effective configuration, loading it if no command hook ran.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

// loadOptions maps the effective configuration and sheet flags onto loader options.
func loadOptions() (loader.Options, error) {
	c := settings()
	opt := loader.DefaultOptions()
	var err error
	if opt.Delimiter, err = cfgpkg.ParseSeparator(c.Delimiter); err != nil {
		return opt, fmt.Errorf("--delimiter: %w", err)
	}
	if opt.DecimalSeparator, err = cfgpkg.ParseSeparator(c.DecimalSeparator); err != nil {
		return opt, fmt.Errorf("--decimal: %w", err)
	}
	if opt.ThousandsSeparator, err = cfgpkg.ParseSeparator(c.ThousandsSeparator); err != nil {
		return opt, fmt.Errorf("--thousands: %w", err)
	}
	opt.SheetName = flagSheetName
	opt.SheetIndex = flagSheetIndex
	opt.MaxRows = c.MaxRows
	return opt, nil
}

// loadTable reads path and reports loader warnings on stderr.
func loadTable(cmd *cobra.Command, path string) (*loader.Dataset, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ds, err := loader.Load(path, opt)
	if err != nil {
		return nil, err
	}
	if debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "[debug] loaded %s: %d rows x %d columns in %s\n", ds.Name(), ds.NumRows(), ds.NumCols(), time.Since(start).Round(time.Microsecond))
	}
	for _, w := range ds.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %s\n", w)
	}
	return ds, nil
}

// runAnalysis loads path, dispatches command with its positional arguments and
// writes the result.
func runAnalysis(cmd *cobra.Command, path, command string, positional []string) error {
	req, err := dispatch.ParseArgs(command, positional)
	if err != nil {
		return err
	}
	ds, err := loadTable(cmd, path)
	if err != nil {
		return err
	}
	defer ds.Release()

	c := settings()
	d := dispatch.Defaults{Bins: c.HistogramBins, Threshold: c.OutlierThreshold}
	res, err := d.Dispatch(ds.Table, req)
	if err != nil {
		return err
	}
	if debug {
		fmt.Fprintf(cmd.ErrOrStderr(), "[debug] %s %v options=%v\n", req.Command, req.Columns, req.Options)
	}
	return emit(cmd, render.NewEnvelope(ds.Name(), res))
}

// emit writes env to --output, or stdout when no output path is set.
func emit(cmd *cobra.Command, env render.Envelope) error {
	c := settings()
	opt := render.TextOptions{Width: c.BarWidth, Glyph: c.BarGlyph, Color: c.Color && flagOutput == ""}
	if flagOutput == "" {
		return render.Write(cmd.OutOrStdout(), c.OutputFormat, env, opt)
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, c.OutputFormat, env, opt); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(flagOutput, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s result to %s\n", env.Command, flagOutput)
	return nil
}

// requireFile checks that the first positional argument (the data file) is present.
func requireFile(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &analysis.Error{Kind: analysis.KindMissingArgument, Detail: "no input file given; usage: " + cmd.UseLine()}
	}
	return nil
}
