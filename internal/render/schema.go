package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

// ColumnInfo describes one column for the describe command.
type ColumnInfo struct {
	Name     string   `json:"name" yaml:"name"`
	Kind     string   `json:"kind" yaml:"kind"`
	NonNull  int      `json:"non_null" yaml:"non_null"`
	Missing  int      `json:"missing" yaml:"missing"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// TableInfo is the schema of a loaded table.
type TableInfo struct {
	File    string       `json:"file" yaml:"file"`
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

const maxExamples = 3

// Describe collects the schema of t.
func Describe(t *analysis.Table) TableInfo {
	info := TableInfo{File: t.Name(), Rows: t.NumRows()}
	for _, c := range t.Columns() {
		ci := ColumnInfo{Name: c.Name, Kind: c.Kind.String(), Missing: c.Missing(), NonNull: c.Len() - c.Missing()}
		if vals, err := c.Floats(); err == nil && len(vals) > 0 {
			lo, hi := vals[0], vals[0]
			for _, v := range vals[1:] {
				lo, hi = min(lo, v), max(hi, v)
			}
			ci.Min, ci.Max = &lo, &hi
		} else {
			seen := map[string]bool{}
			for i := 0; i < c.Len() && len(ci.Examples) < maxExamples; i++ {
				v := c.Text(i)
				if c.IsMissing(i) || seen[v] {
					continue
				}
				seen[v] = true
				ci.Examples = append(ci.Examples, v)
			}
		}
		info.Columns = append(info.Columns, ci)
	}
	return info
}

// Schema writes a plain-text schema listing of t.
func Schema(w io.Writer, t *analysis.Table) error {
	info := Describe(t)
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if info.File != "" {
		fmt.Fprintf(&b, "File: %s\n", info.File)
	}
	fmt.Fprintf(&b, "Rows: %d\n", info.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(info.Columns))
	b.WriteString("[SCHEMA]\n")
	for _, c := range info.Columns {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Kind, c.NonNull, missPct)
		switch {
		case c.Min != nil:
			fmt.Fprintf(&b, "; min %.4g, max %.4g", *c.Min, *c.Max)
		case len(c.Examples) > 0:
			vals := make([]string, len(c.Examples))
			for i, ex := range c.Examples {
				vals[i] = safeVal(ex)
			}
			fmt.Fprintf(&b, "; e.g., %s", strings.Join(vals, " | "))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
