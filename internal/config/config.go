package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Analysis defaults
	HistogramBins    int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`

	// Input parsing; empty separators are auto-detected
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	BarWidth     int    `mapstructure:"bar_width" yaml:"bar_width"`
	BarGlyph     string `mapstructure:"bar_glyph" yaml:"bar_glyph"`
	Color        bool   `mapstructure:"color" yaml:"color"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"histogram_bins", "outlier_threshold",
	"delimiter", "decimal_separator", "thousands_separator", "max_rows",
	"output_format", "bar_width", "bar_glyph", "color",
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		HistogramBins:    10,
		OutlierThreshold: 2.0,
		OutputFormat:     "text",
		BarGlyph:         "#",
		Color:            true,
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datastat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datastat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASTAT")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("outlier_threshold", d.OutlierThreshold)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("thousands_separator", d.ThousandsSeparator)
	v.SetDefault("max_rows", d.MaxRows)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("bar_width", d.BarWidth)
	v.SetDefault("bar_glyph", d.BarGlyph)
	v.SetDefault("color", d.Color)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if c.HistogramBins < 1 {
		return fmt.Errorf("invalid histogram_bins: %d (must be >= 1)", c.HistogramBins)
	}
	if !(c.OutlierThreshold > 0) {
		return fmt.Errorf("invalid outlier_threshold: %v (must be > 0)", c.OutlierThreshold)
	}
	if c.MaxRows < 0 || c.BarWidth < 0 {
		return fmt.Errorf("max_rows and bar_width must not be negative")
	}
	switch c.OutputFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output_format: %s (use text, json, or yaml)", c.OutputFormat)
	}
	for _, s := range []string{c.Delimiter, c.DecimalSeparator, c.ThousandsSeparator} {
		if _, err := ParseSeparator(s); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "histogram_bins", "max_rows", "bar_width":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "histogram_bins":
			if i < 1 {
				return fmt.Errorf("invalid int for histogram_bins: %v (must be >= 1)", val)
			}
			c.HistogramBins = i
		case "max_rows":
			c.MaxRows = i
		default:
			c.BarWidth = i
		}
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || !(f > 0) {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		c.OutlierThreshold = f
	case "delimiter", "decimal_separator", "thousands_separator":
		if _, err := ParseSeparator(val); err != nil {
			return err
		}
		switch key {
		case "delimiter":
			c.Delimiter = val
		case "decimal_separator":
			c.DecimalSeparator = val
		default:
			c.ThousandsSeparator = val
		}
	case "output_format":
		switch strings.ToLower(val) {
		case "text", "json", "yaml":
			c.OutputFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid output_format: %s (use text, json, or yaml)", val)
		}
	case "bar_glyph":
		if val == "" {
			return fmt.Errorf("bar_glyph must not be empty")
		}
		c.BarGlyph = val
	case "color":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for color: %v", val)
		}
		c.Color = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get returns the display form of one key.
func (c *Global) Get(key string) string {
	switch key {
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins)
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64)
	case "delimiter":
		return strconv.Quote(c.Delimiter)
	case "decimal_separator":
		return strconv.Quote(c.DecimalSeparator)
	case "thousands_separator":
		return strconv.Quote(c.ThousandsSeparator)
	case "max_rows":
		return strconv.Itoa(c.MaxRows)
	case "output_format":
		return c.OutputFormat
	case "bar_width":
		return strconv.Itoa(c.BarWidth)
	case "bar_glyph":
		return c.BarGlyph
	case "color":
		return strconv.FormatBool(c.Color)
	}
	return ""
}

// ParseSeparator turns a configured separator into a rune. Empty means
// auto-detect (0); "tab" and `\t` name the tab character.
func ParseSeparator(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid separator %q (use a single character, tab, or space)", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
