package analysis

import (
	"math"
	"sort"
)

// Summarize computes count, mean, median, mode, sample standard deviation,
// min and max over the non-missing values of a numeric column.
//
// Mode ties are broken by the smallest value. At least two values are
// required since the sample standard deviation divides by N-1.
func Summarize(col Column) (*Summary, error) {
	vals, err := col.Floats()
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 {
		return nil, Errorf(KindInsufficientData, col.Name, "need at least 2 values, have %d", len(vals))
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mode, modeCount := modeOf(sorted)
	acc := newWelford(vals)
	return &Summary{
		Column:    col.Name,
		Count:     len(vals),
		Mean:      acc.Mean(),
		Median:    median(sorted),
		Mode:      mode,
		ModeCount: modeCount,
		StdDev:    acc.SampleStdDev(),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
	}, nil
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	if (lo < 0) != (hi < 0) {
		return (lo + hi) / 2
	}
	return lo + (hi-lo)/2
}

// modeOf expects sorted input; scanning runs in ascending order and only a
// strictly longer run replaces the current best, so ties keep the smallest value.
func modeOf(sorted []float64) (float64, int) {
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if run := j - i; run > bestCount {
			best, bestCount = sorted[i], run
		}
		i = j
	}
	return best, bestCount
}

// welford keeps a running mean and sum of squared deviations. Values are
// fed in divided by 2^exp, chosen so every scaled value lies in (-1, 1);
// the scaling is exact and deviations between extreme finite values stay
// representable.
type welford struct {
	exp  int
	n    int
	mean float64
	m2   float64
}

func newWelford(vals []float64) *welford {
	var peak float64
	for _, v := range vals {
		peak = max(peak, math.Abs(v))
	}
	w := &welford{}
	if peak > 0 {
		_, w.exp = math.Frexp(peak)
	}
	for _, v := range vals {
		w.add(v)
	}
	return w
}

func (w *welford) add(v float64) {
	x := w.scaled(v)
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) scaled(v float64) float64 { return math.Ldexp(v, -w.exp) }

// Mean is the running mean in the caller's units.
func (w *welford) Mean() float64 { return math.Ldexp(w.mean, w.exp) }

// SampleStdDev divides by N-1 and needs at least two values.
func (w *welford) SampleStdDev() float64 {
	return math.Ldexp(math.Sqrt(w.m2/float64(w.n-1)), w.exp)
}

// PopulationStdDev divides by N.
func (w *welford) PopulationStdDev() float64 {
	return math.Ldexp(w.scaledPopulationStdDev(), w.exp)
}

func (w *welford) scaledPopulationStdDev() float64 {
	return math.Sqrt(w.m2 / float64(w.n))
}

// ZScore standardizes v against the population standard deviation. It works
// in scaled units so v minus the mean cannot overflow.
func (w *welford) ZScore(v float64) float64 {
	return (w.scaled(v) - w.mean) / w.scaledPopulationStdDev()
}
