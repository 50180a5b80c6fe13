package analysis

// Command names, shared by the dispatcher and the renderers.
const (
	CommandStats       = "stats"
	CommandHistogram   = "histogram"
	CommandCorrelation = "correlation"
	CommandOutliers    = "outliers"
)

// Result is one of *Summary, *Histogram, *Correlation or *Outliers.
type Result interface {
	// Command names the analysis that produced the result.
	Command() string
	isResult()
}

// Summary holds descriptive statistics for one numeric column.
type Summary struct {
	Column    string  `json:"column" yaml:"column"`
	Count     int     `json:"count" yaml:"count"`
	Mean      float64 `json:"mean" yaml:"mean"`
	Median    float64 `json:"median" yaml:"median"`
	Mode      float64 `json:"mode" yaml:"mode"`
	ModeCount int     `json:"mode_count" yaml:"mode_count"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
}

// Histogram holds bin edges (len(Counts)+1 of them) and per-bin counts.
type Histogram struct {
	Column string    `json:"column" yaml:"column"`
	Edges  []float64 `json:"bin_edges" yaml:"bin_edges"`
	Counts []int     `json:"bin_counts" yaml:"bin_counts"`
}

// Correlation holds a Pearson coefficient over N complete pairs.
type Correlation struct {
	ColumnA     string  `json:"column_a" yaml:"column_a"`
	ColumnB     string  `json:"column_b" yaml:"column_b"`
	N           int     `json:"n" yaml:"n"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
}

// Outliers holds the rows whose z-score reached the threshold.
type Outliers struct {
	Column    string       `json:"column" yaml:"column"`
	Threshold float64      `json:"threshold" yaml:"threshold"`
	Mean      float64      `json:"mean" yaml:"mean"`
	StdDev    float64      `json:"std_dev" yaml:"std_dev"`
	Header    []string     `json:"header" yaml:"header"`
	Rows      []OutlierRow `json:"rows" yaml:"rows"`
}

// OutlierRow is a full table row flagged as an outlier.
type OutlierRow struct {
	Index  int      `json:"index" yaml:"index"`
	Z      float64  `json:"z" yaml:"z"`
	Values []string `json:"values" yaml:"values"`
}

func (*Summary) Command() string     { return CommandStats }
func (*Histogram) Command() string   { return CommandHistogram }
func (*Correlation) Command() string { return CommandCorrelation }
func (*Outliers) Command() string    { return CommandOutliers }

func (*Summary) isResult()     {}
func (*Histogram) isResult()   {}
func (*Correlation) isResult() {}
func (*Outliers) isResult()    {}
