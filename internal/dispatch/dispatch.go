// Package dispatch maps a command name and its arguments onto one analysis.
package dispatch

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

// Request is one analysis invocation as supplied by the argument source.
type Request struct {
	Command string
	Columns []string
	Options []float64
}

// Defaults supply the optional histogram bin count and outlier threshold.
type Defaults struct {
	Bins      int
	Threshold float64
}

// Standard holds the built-in defaults used by Dispatch.
var Standard = Defaults{Bins: 10, Threshold: analysis.DefaultOutlierThreshold}

type arity struct {
	columns int
	options int // optional trailing numbers
}

var commands = map[string]arity{
	analysis.CommandStats:       {columns: 1},
	analysis.CommandHistogram:   {columns: 1, options: 1},
	analysis.CommandCorrelation: {columns: 2},
	analysis.CommandOutliers:    {columns: 1, options: 1},
}

// Commands returns the supported command names in sorted order.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs req against t with the Standard defaults.
func Dispatch(t *analysis.Table, req Request) (analysis.Result, error) {
	return Standard.Dispatch(t, req)
}

// Dispatch validates the arity of req, then runs the matching analysis.
// Errors from the analysis are returned unchanged.
func (d Defaults) Dispatch(t *analysis.Table, req Request) (analysis.Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	res, err := d.run(t, req)
	if err != nil {
		// never a typed nil
		return nil, err
	}
	return res, nil
}

func (d Defaults) run(t *analysis.Table, req Request) (analysis.Result, error) {
	switch req.Command {
	case analysis.CommandStats:
		col, err := t.Resolve(req.Columns[0])
		if err != nil {
			return nil, err
		}
		return analysis.Summarize(col)
	case analysis.CommandHistogram:
		col, err := t.Resolve(req.Columns[0])
		if err != nil {
			return nil, err
		}
		bins := d.Bins
		if len(req.Options) > 0 {
			v := req.Options[0]
			if v != math.Trunc(v) {
				return nil, analysis.Errorf(analysis.KindInvalidBinCount, col.Name, "bin count %v is not an integer", v)
			}
			if math.Abs(v) > analysis.MaxBins {
				return nil, analysis.Errorf(analysis.KindInvalidBinCount, col.Name, "bin count %v is out of range, at most %d", v, analysis.MaxBins)
			}
			bins = int(v)
		}
		return analysis.BuildHistogram(col, bins)
	case analysis.CommandCorrelation:
		a, err := t.Resolve(req.Columns[0])
		if err != nil {
			return nil, err
		}
		b, err := t.Resolve(req.Columns[1])
		if err != nil {
			return nil, err
		}
		return analysis.Correlate(a, b)
	default: // outliers
		threshold := d.Threshold
		if len(req.Options) > 0 {
			threshold = req.Options[0]
		}
		return analysis.DetectOutliers(t, req.Columns[0], threshold)
	}
}

func validate(req Request) error {
	s, ok := commands[req.Command]
	if !ok {
		if req.Command == "" {
			return &analysis.Error{Kind: analysis.KindUnknownCommand, Detail: "no command given"}
		}
		return analysis.Errorf(analysis.KindUnknownCommand, "", "%q (available: %s)", req.Command, strings.Join(Commands(), ", "))
	}
	if len(req.Columns) < s.columns {
		return analysis.Errorf(analysis.KindMissingArgument, "", "%s needs %d column name(s), got %d", req.Command, s.columns, len(req.Columns))
	}
	for i, c := range req.Columns {
		if c == "" {
			return analysis.Errorf(analysis.KindMissingArgument, "", "%s: column name %d is empty", req.Command, i+1)
		}
	}
	if len(req.Columns) > s.columns {
		return analysis.Errorf(analysis.KindInvalidArgument, "", "%s takes %d column name(s), got %d", req.Command, s.columns, len(req.Columns))
	}
	if len(req.Options) > s.options {
		return analysis.Errorf(analysis.KindInvalidArgument, "", "%s takes at most %d option(s), got %d", req.Command, s.options, len(req.Options))
	}
	return nil
}

// ParseArgs converts the positional form `<column> [column2|bins|threshold]`
// into a Request. The optional trailing number is parsed per command.
func ParseArgs(command string, positional []string) (Request, error) {
	req := Request{Command: command}
	s, ok := commands[command]
	if !ok {
		return req, validate(req)
	}
	n := s.columns
	if len(positional) < n {
		n = len(positional)
	}
	req.Columns = append(req.Columns, positional[:n]...)
	for _, raw := range positional[n:] {
		raw = strings.TrimSpace(raw)
		switch command {
		case analysis.CommandHistogram:
			bins, err := strconv.Atoi(raw)
			if err != nil {
				return req, analysis.Errorf(analysis.KindInvalidBinCount, "", "bin count %q is not an integer", raw)
			}
			req.Options = append(req.Options, float64(bins))
		case analysis.CommandOutliers:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return req, analysis.Errorf(analysis.KindInvalidThreshold, "", "threshold %q is not a number", raw)
			}
			req.Options = append(req.Options, v)
		default:
			return req, analysis.Errorf(analysis.KindInvalidArgument, "", "%s: unexpected argument %q", command, raw)
		}
	}
	return req, validate(req)
}
