package analysis

import "math"

// DefaultOutlierThreshold is the |z| cut-off used when the caller gives none.
const DefaultOutlierThreshold = 2.0

// zTolerance absorbs rounding at the boundary: a z-score that should sit
// exactly on the threshold is still flagged.
const zTolerance = 1e-9

// DetectOutliers flags rows whose standardized value in column reaches
// threshold in magnitude, returning the full rows in original order.
//
// z-scores use the population standard deviation (divisor N), unlike
// Summarize which reports the sample standard deviation. When the standard
// deviation is zero no row is an outlier.
func DetectOutliers(t *Table, column string, threshold float64) (*Outliers, error) {
	col, err := t.Resolve(column)
	if err != nil {
		return nil, err
	}
	if !(threshold > 0) {
		return nil, Errorf(KindInvalidThreshold, column, "threshold must be positive, got %g", threshold)
	}
	vals, err := col.Floats()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, Errorf(KindInsufficientData, column, "no values")
	}
	acc := newWelford(vals)
	m, sd := acc.Mean(), acc.PopulationStdDev()
	out := &Outliers{
		Column:    column,
		Threshold: threshold,
		Mean:      m,
		StdDev:    sd,
		Header:    t.ColumnNames(),
		Rows:      []OutlierRow{},
	}
	if sd == 0 {
		return out, nil
	}
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Float(i)
		if !ok {
			continue
		}
		z := acc.ZScore(v)
		if math.Abs(z) > threshold-zTolerance {
			out.Rows = append(out.Rows, OutlierRow{Index: i, Z: z, Values: t.Row(i)})
		}
	}
	return out, nil
}
