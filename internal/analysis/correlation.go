package analysis

import "math"

// Correlate returns the Pearson product-moment correlation between two numeric
// columns of equal length. Rows missing a value in either column are skipped.
func Correlate(a, b Column) (*Correlation, error) {
	if a.Kind != Numeric {
		return nil, &Error{Kind: KindNonNumericColumn, Column: a.Name}
	}
	if b.Kind != Numeric {
		return nil, &Error{Kind: KindNonNumericColumn, Column: b.Name}
	}
	if a.Len() != b.Len() {
		return nil, Errorf(KindLengthMismatch, "", "%q has %d rows, %q has %d", a.Name, a.Len(), b.Name, b.Len())
	}

	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		x, okx := a.Float(i)
		y, oky := b.Float(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return nil, Errorf(KindInsufficientData, "", "need at least 2 complete pairs of %q and %q, have %d", a.Name, b.Name, len(xs))
	}

	// r does not change under scaling, so deviations are taken in the
	// accumulators' scaled units.
	wx, wy := newWelford(xs), newWelford(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx := wx.scaled(xs[i]) - wx.mean
		dy := wy.scaled(ys[i]) - wy.mean
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 {
		return nil, Errorf(KindUndefinedCorrelation, a.Name, "zero variance")
	}
	if syy == 0 {
		return nil, Errorf(KindUndefinedCorrelation, b.Name, "zero variance")
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return &Correlation{ColumnA: a.Name, ColumnB: b.Name, N: len(xs), Coefficient: r}, nil
}
