// Package loader turns delimited files and workbooks into analysis tables.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

// Options controls how a file is read and how numbers are recognized.
type Options struct {
	// Delimiter for CSV. If 0, picked from the extension ('\t' for .tsv, ',' otherwise).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int
}

// DefaultOptions returns auto-detecting options that read the first sheet.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Format reads the header and data rows of one file type.
type Format interface {
	CanLoad(filename string) bool
	ReadRows(path string, opt Options) (header []string, rows [][]string, err error)
}

var registry []Format

// Register adds a format implementation to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

func init() {
	Register(csvFormat{})
	Register(xlsxFormat{})
}

// Dataset is a loaded table plus what the loader noticed on the way.
type Dataset struct {
	*analysis.Table
	// Rows is the number of data rows in the file, before MaxRows.
	Rows     int
	Warnings []string
}

// Load reads path with the format matching its extension (CSV when none
// matches) and builds a typed table from it.
func Load(path string, opt Options) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &analysis.Error{Kind: analysis.KindFileNotFound, Detail: path}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	var format Format = csvFormat{}
	for _, f := range registry {
		if f.CanLoad(path) {
			format = f
			break
		}
	}
	header, rows, err := format.ReadRows(path, opt)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Rows: len(rows)}
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, ds.Rows))
	}
	tbl, err := buildTable(filepath.Base(path), header, rows, opt)
	if err != nil {
		return nil, err
	}
	ds.Table = tbl
	return ds, nil
}

// buildTable declares each column numeric when it has at least one value and
// every non-empty cell parses as a number; everything else is text.
func buildTable(name string, header []string, rows [][]string, opt Options) (*analysis.Table, error) {
	cols := make([]analysis.ColumnData, len(header))
	for j, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, analysis.Errorf(analysis.KindParseError, "", "%s: header column %d is empty", name, j+1)
		}
		texts := make([]string, len(rows))
		valid := make([]bool, len(rows))
		nums := make([]float64, len(rows))
		numeric, seen := true, false
		for i, rec := range rows {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			texts[i] = v
			if v == "" {
				continue
			}
			valid[i] = true
			seen = true
			if !numeric {
				continue
			}
			if x, ok := parseNumeric(v, opt); ok {
				nums[i] = x
			} else {
				numeric = false
			}
		}
		if numeric && seen {
			cols[j] = analysis.ColumnData{Name: h, Kind: analysis.Numeric, Nums: nums, Valid: valid}
		} else {
			cols[j] = analysis.ColumnData{Name: h, Kind: analysis.Text, Texts: texts, Valid: valid}
		}
	}
	tbl, err := analysis.NewTable(name, cols...)
	if err != nil {
		return nil, fmt.Errorf("build table %s: %w", name, err)
	}
	return tbl, nil
}
