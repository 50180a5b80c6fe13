package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/muesli/termenv"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

// printer writes lines with optional ANSI styling.
type printer struct {
	w   io.Writer
	out *termenv.Output
	err error
}

func newPrinter(w io.Writer, color bool) *printer {
	opts := []termenv.OutputOption{}
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &printer{w: w, out: termenv.NewOutput(w, opts...)}
}

func (p *printer) title(format string, args ...any) {
	p.line("%s", p.out.String(fmt.Sprintf(format, args...)).Bold().String())
}

func (p *printer) accent(s string) string {
	return p.out.String(s).Foreground(p.out.Color("6")).String()
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func writeText(w io.Writer, res analysis.Result, opt TextOptions) error {
	p := newPrinter(w, opt.Color)
	switch r := res.(type) {
	case *analysis.Summary:
		writeSummary(p, r)
	case *analysis.Histogram:
		writeHistogram(p, r, opt)
	case *analysis.Correlation:
		p.line("Correlation between %s and %s: %s", r.ColumnA, r.ColumnB, p.accent(fmt.Sprintf("%.2f", r.Coefficient)))
	case *analysis.Outliers:
		writeOutliers(p, r)
	default:
		return fmt.Errorf("render: unsupported result %T", res)
	}
	return p.err
}

func writeSummary(p *printer, s *analysis.Summary) {
	p.title("Statistics for %s:", s.Column)
	p.line("Mean: %s", p.accent(fmt.Sprintf("%.2f", s.Mean)))
	p.line("Median: %s", p.accent(fmt.Sprintf("%.2f", s.Median)))
	p.line("Mode: %s (%d occurrences)", p.accent(fmt.Sprintf("%g", s.Mode)), s.ModeCount)
	p.line("Standard Deviation: %s", p.accent(fmt.Sprintf("%.2f", s.StdDev)))
	p.line("Min: %.2f, Max: %.2f, Count: %d", s.Min, s.Max, s.Count)
}

func writeHistogram(p *printer, h *analysis.Histogram, opt TextOptions) {
	glyph := opt.Glyph
	if glyph == "" {
		glyph = "#"
	}
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}
	scaled := opt.Width > 0 && peak > opt.Width
	p.title("Histogram for %s:", h.Column)
	for i, c := range h.Counts {
		n := c
		if scaled {
			n = int(math.Round(float64(c) * float64(opt.Width) / float64(peak)))
			if c > 0 && n == 0 {
				n = 1
			}
		}
		bar := p.accent(strings.Repeat(glyph, n))
		if scaled {
			p.line("%.2f - %.2f: %s %d", h.Edges[i], h.Edges[i+1], bar, c)
		} else {
			p.line("%.2f - %.2f: %s", h.Edges[i], h.Edges[i+1], bar)
		}
	}
}

func writeOutliers(p *printer, o *analysis.Outliers) {
	p.title("Outliers for %s (Threshold=%g):", o.Column, o.Threshold)
	if len(o.Rows) == 0 {
		p.line("No outliers found (mean %.2f, std %.2f).", o.Mean, o.StdDev)
		return
	}
	var b strings.Builder
	b.WriteString("| row | z |")
	for _, h := range o.Header {
		b.WriteString(" " + safeVal(h) + " |")
	}
	p.line("%s", b.String())
	b.Reset()
	b.WriteString("|---|---|")
	for range o.Header {
		b.WriteString("---|")
	}
	p.line("%s", b.String())
	for _, r := range o.Rows {
		b.Reset()
		fmt.Fprintf(&b, "| %d | %s |", r.Index, p.accent(fmt.Sprintf("%.2f", r.Z)))
		for _, v := range r.Values {
			b.WriteString(" " + safeVal(v) + " |")
		}
		p.line("%s", b.String())
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
