// Package render presents analysis results as text, JSON or YAML.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
	"github.com/KaramelBytes/datastat-cli/internal/utils"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
func Formats() []string { return []string{FormatText, FormatJSON, FormatYAML} }

// Envelope wraps one result with the context it was produced in.
type Envelope struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	File    string          `json:"file" yaml:"file"`
	Command string          `json:"command" yaml:"command"`
	Result  analysis.Result `json:"result" yaml:"result"`
}

// NewEnvelope stamps res with a fresh run id.
func NewEnvelope(file string, res analysis.Result) Envelope {
	return Envelope{RunID: uuid.NewString(), File: file, Command: res.Command(), Result: res}
}

// TextOptions tune the text format. They are ignored by JSON and YAML.
type TextOptions struct {
	// Width caps histogram bars at this many glyphs; 0 draws one glyph per count.
	Width int
	// Glyph draws histogram bars; defaults to "#".
	Glyph string
	// Color enables ANSI styling when w is a terminal.
	Color bool
}

// Write renders env to w in the given format.
func Write(w io.Writer, format string, env Envelope, opt TextOptions) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return writeText(w, env.Result, opt)
	case FormatJSON:
		b, err := utils.PrettyJSON(env)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use %s)", format, strings.Join(Formats(), ", "))
	}
}
