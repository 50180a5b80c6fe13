package analysis

import "math"

// MaxBins is the largest bin count BuildHistogram accepts.
const MaxBins = 1 << 20

// BuildHistogram partitions [min, max] of a numeric column into bins equal-width
// intervals. Bin i holds values with edges[i] <= v < edges[i+1]; the last bin is
// closed on both ends so the maximum is always counted. When every value is
// equal all edges collapse onto that value and everything lands in bin 0.
func BuildHistogram(col Column, bins int) (*Histogram, error) {
	if bins < 1 {
		return nil, Errorf(KindInvalidBinCount, col.Name, "bin count must be at least 1, got %d", bins)
	}
	if bins > MaxBins {
		return nil, Errorf(KindInvalidBinCount, col.Name, "bin count must be at most %d, got %d", MaxBins, bins)
	}
	vals, err := col.Floats()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, Errorf(KindInsufficientData, col.Name, "no values to bin")
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	h := &Histogram{
		Column: col.Name,
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	if lo == hi {
		for i := range h.Edges {
			h.Edges[i] = lo
		}
		h.Counts[0] = len(vals)
		return h, nil
	}

	width := (hi - lo) / float64(bins)
	spanOverflows := math.IsInf(width, 0)
	if spanOverflows {
		width = hi/float64(bins) - lo/float64(bins)
	}
	for i := 0; i < bins; i++ {
		if spanOverflows {
			t := float64(i) / float64(bins)
			h.Edges[i] = lo*(1-t) + hi*t
			continue
		}
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	for _, v := range vals {
		h.Counts[binIndex(h.Edges, v, lo, width)]++
	}
	return h, nil
}

// binIndex estimates the bin arithmetically and then nudges it so the
// half-open rule holds against the stored edges despite rounding.
func binIndex(edges []float64, v, lo, width float64) int {
	last := len(edges) - 2
	if v >= edges[last+1] {
		return last
	}
	f := (v - lo) / width
	if math.IsInf(f, 0) {
		f = v/width - lo/width
	}
	i := int(max(0, min(f, float64(last))))
	for i > 0 && v < edges[i] {
		i--
	}
	for i < last && v >= edges[i+1] {
		i++
	}
	return i
}
