package loader

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	wantConcentration = []float64{0.5, 0.6, 0.55, 0.7, 0.65, 0.68, 0.52, 0.75, 3.0, 0.66}
	wantLocale        = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000, 1010}
	wantHeader        = []string{"Group", "Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber", "Category", "Note"}
)

const xlsxFixtureBase64 = `
UEsDBBQAAAAIAMEwN1vYAxPv/wAAALYCAAATABwAW0NvbnRlbnRfVHlwZXNdLnhtbFVUCQADyjjSaMo40mh1eAsAAQQAAAAABAAAAAC1ks1OwzAQhO95CsvX
Kt60B4RQkh74OQKH8gDG3iRW/CfbLeHtcVIEEqIIpHJaWTOz32jlejsZTQ4YonK2oWtWUYJWOKls39Cn3V15SbdtUe9ePUaSvTY2dEjJXwFEMaDhkTmPNiud
C4an/Aw9eC5G3iNsquoChLMJbSrTvIO2BSH1DXZ8rxO5nbJyRAfUkZLro3fGNZR7r5XgKetwsPILqHyHsJxcPHFQPq6ygcIpyCyeZnxGH/JFgpJIHnlI99xk
I0waXlwYn50b2c97vunquk4JlE7sTY6w6ANyGQfEZDRbJjNc2dWvKiz+CMtYn7nLx/6/V9n8d5Ualm/YFm9QSwMECgAAAAAAxDA3WwAAAAAAAAAAAAAAAAMA
HAB4bC9VVAkAA9A40mjyONJodXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIAMQwN1tM2kS6xQAAAEkBAAAPABwAeGwvd29ya2Jvb2sueG1sVVQJAAPQONJo0DjS
aHV4CwABBAAAAAAEAAAAAI1Qu27DMAzc/RUC90aOhyIwZGcJAnhvP0CxaVuIRRqk+vj8qjEMZOjQ7Y7k3ZF05++4mE8UDUwNHA8lGKSeh0BTA+9v15cTnNvC
fbHcb8x3k8dJG5hTWmtrtZ8xej3wipQ7I0v0KVOZrK6CftAZMcXFVmX5aqMPBJtDLf/x4HEMPV64/4hIaTMRXHzKy+ocVoW2MMY9QvQX7sSQj9hANxELgnnU
uiHfB0bqkIF0wxHsH5KLT/5JUD0Jqk3g7J7n7P6WtvgBUEsDBAoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABwAeGwvd29ya3NoZWV0cy9VVAkAA+s40mjyONJo
dXgLAAEEAAAAAAQAAAAAUEsDBBQAAAAIANIwN1u3fFZsqwIAAIASAAAYABwAeGwvd29ya3NoZWV0cy9zaGVldDIueG1sVVQJAAPrONJo6zjSaHV4CwABBAAA
AAAEAAAAAJ3YT26bQBiH4X1OgVilkguD/wEVJkoMzibKJukBJngMqGYGDeMkvVXP0JN1nEhVQ/r7QCxx/BDsV9/gIbl6bY7Os9BdreTGDTzmOkIWal/LcuN+
f9x9jdyr9CJ5UfpHVwlhHPt+2W3cypj2m+93RSUa3nmqFdL+5aB0w4091KXftVrw/Rtqjv6csbXf8Fq66YXjJG8vZ9zw85E91urF0fb/u+/H9pXifHwduI7Z
uLU81lI8GO2mSd2liUlvtTq1iW/SxD+/4Bcf3Q1yWyULIY3mxn5e57L0777gs2zRWR5F0zqXv3/tCJwh/FAoLbDLkbtTBT+K+1PzJDTmO/jJuRGl0j8xvUX0
Xpn/XHDi22gf8837+ebgjNdEOmTYbEWkQipkRCKEAjYjWA6Zxxgpd0jyY1txogxyh1p3ZlSaRT/NYkIaZNhsTaRBKgyINAgFAZkGMi8YSIPkUBrkOlEouR/V
Ztlvs5zQBhk7NtTcILaOiTgIxdSI5vAKvXigDZJPwlBpEDNVrceVWfXLrMApb4gyyLBZSIRBKiS+4gyhgFw8c8g8tqLLIDk0Ncgd1EmbalSbdb/NekIbZOyK
Rk0NYuGSiINQPIuINvAKvTii2yA5MDWIHerDyDJhv0w4oQwytgzxdW0RCxdEGYTs2MyJNJB5bE6nQXJobJDr6teRbaJ+m2jCvQYZu8oQ39cWMSpohlBETg28
Qi8amBokS940VBrkOvFsNxzj4sT9OPGEwUHG3m6oJQ2xkPhplyEUU7e2HF6hF4d0HCQHljTERF1WI9ME7NPWlE2YHIgW1OfeQhZTvwagom/qOXaDGxxIh1Y2
CGU9dnqCz08P0I6Wmh+I7J2H2uZAFxJrYgaVvfcQ+6McO4/R29cdpENLHIRmYIVL/H+e9yT+34dJ6cUfUEsDBBQAAAAIAMcwN1sqMey0swAAAPgAAAAYABwA
eGwvd29ya3NoZWV0cy9zaGVldDEueG1sVVQJAAPWONJo1jjSaHV4CwABBAAAAAAEAAAAAE2P3WrDMAxG7/MURverkl6MUhyXwegLrHsA46iNqf+QxbLHr5OO
0cvzSfoO0qffGNQPcfU5jTDselCUXJ58uo3wfTm/HeBkOr1kvteZSFTbT3WEWaQcEaubKdq6y4VSm1wzRysN+Ya1MNlpO4oB933/jtH6BKZTSm/xpxW7UmPO
i+Lmhye3xK38MYCSEXwKPtGXMBjtq9FiSrCO5hwmYo1iNK4xur82bHWbBl88Gv+fMN0DUEsDBAoAAAAAAMYwN1sAAAAAAAAAAAAAAAAJABwAeGwvX3JlbHMv
VVQJAAPTONJo8jjSaHV4CwABBAAAAAAEAAAAAFBLAwQUAAAACADGMDdbCmPblLYAAACtAQAAGgAcAHhsL19yZWxzL3dvcmtib29rLnhtbC5yZWxzVVQJAAPT
ONJo0zjSaHV4CwABBAAAAAAEAAAAAL2QSwrCMBBA9z1FmL2dtgsRadqNCN1KPUBIpx/aJiGJv9sbBMWCgitXw/zePCYvr/PEzmTdoBWHNE6AkZK6GVTH4Vjv
Vxsoiyg/0CR8GHH9YBwLO8px6L03W0Qne5qFi7UhFTqttrPwIbUdGiFH0RFmSbJG+86AImJsgWVVw8FWTQqsvhn6Ba/bdpC00/I0k/IfruBF29H1RD5Ahe3I
c3iVHD5CGgcq4Fef7M8+2dMnx8XXi+gOUEsDBAoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABwAX3JlbHMvVVQJAAPNONJo8jjSaHV4CwABBAAAAAAEAAAAAFBL
AwQUAAAACADDMDdbDxvLDKoAAAAcAQAACwAcAF9yZWxzLy5yZWxzVVQJAAPNONJozTjSaHV4CwABBAAAAAAEAAAAAI3PsQ6CMBAG4J2naG6XgoMxxsJiTFgN
PkAtRyHQXtNWxbe3oxgHx8v9913+Y72YmT3Qh5GsgDIvgKFV1I1WC7i2580e6io7XnCWMUXCMLrA0o0NAoYY3YHzoAY0MuTk0KZNT97ImEavuZNqkhr5tih2
3H8aUGWMrVjWdAJ805XA2pfDf3jq+1HhidTdoI0/vnwlkiy9xihgmfmT/HQjmvKEAk8d+apklb0BUEsBAh4DFAAAAAgAwTA3W9gDE+//AAAAtgIAABMAGAAA
AAAAAQAAAKSBAAAAAFtDb250ZW50X1R5cGVzXS54bWxVVAUAA8o40mh1eAsAAQQAAAAABAAAAABQSwECHgMKAAAAAADEMDdbAAAAAAAAAAAAAAAAAwAYAAAA
AAAAABAA7UFMAQAAeGwvVVQFAAPQONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DFAAAAAgAxDA3W0zaRLrFAAAASQEAAA8AGAAAAAAAAQAAAKSBiQEAAHhsL3dv
cmtib29rLnhtbFVUBQAD0DjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAANIwN1sAAAAAAAAAAAAAAAAOABgAAAAAAAAAEADtQZcCAAB4bC93b3Jrc2hl
ZXRzL1VUBQAD6zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIANIwN1u3fFZsqwIAAIASAAAYABgAAAAAAAEAAACkgd8CAAB4bC93b3Jrc2hlZXRzL3No
ZWV0Mi54bWxVVAUAA+s40mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADHMDdbKjHstLMAAAD4AAAAGAAYAAAAAAABAAAApIHcBQAAeGwvd29ya3NoZWV0
cy9zaGVldDEueG1sVVQFAAPWONJodXgLAAEEAAAAAAQAAAAAUEsBAh4DCgAAAAAAxjA3WwAAAAAAAAAAAAAAAAkAGAAAAAAAAAAQAO1B4QYAAHhsL19yZWxz
L1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAxQAAAAIAMYwN1sKY9uUtgAAAK0BAAAaABgAAAAAAAEAAACkgSQHAAB4bC9fcmVscy93b3JrYm9vay54
bWwucmVsc1VUBQAD0zjSaHV4CwABBAAAAAAEAAAAAFBLAQIeAwoAAAAAAMMwN1sAAAAAAAAAAAAAAAAGABgAAAAAAAAAEADtQS4IAABfcmVscy9VVAUAA804
0mh1eAsAAQQAAAAABAAAAABQSwECHgMUAAAACADDMDdbDxvLDKoAAAAcAQAACwAYAAAAAAABAAAApIFuCAAAX3JlbHMvLnJlbHNVVAUAA8040mh1eAsAAQQA
AAAABAAAAABQSwUGAAAAAAoACgBTAwAAXQkAAAAA
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeXLSXFixture(t *testing.T) string {
	t.Helper()
	raw := strings.ReplaceAll(strings.TrimSpace(xlsxFixtureBase64), "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	require.NoError(t, err, "decode xlsx fixture")
	path := filepath.Join(t.TempDir(), "analysis_dataset.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func load(t *testing.T, path string, opt Options) *Dataset {
	t.Helper()
	ds, err := Load(path, opt)
	require.NoError(t, err)
	t.Cleanup(ds.Release)
	return ds
}

func floats(t *testing.T, ds *Dataset, name string) []float64 {
	t.Helper()
	col, err := ds.Resolve(name)
	require.NoError(t, err)
	vals, err := col.Floats()
	require.NoError(t, err)
	return vals
}

// assertLocaleDataset checks the semicolon/comma-decimal dataset from either source.
func assertLocaleDataset(t *testing.T, ds *Dataset, wantName string) {
	t.Helper()
	assert.Equal(t, wantName, ds.Name())
	assert.Equal(t, 10, ds.Rows)
	assert.Equal(t, 10, ds.NumRows())
	if diff := cmp.Diff(wantHeader, ds.ColumnNames()); diff != "" {
		t.Fatalf("header (-want +got):\n%s", diff)
	}
	assert.Empty(t, ds.Warnings)

	kinds := map[string]analysis.ColumnKind{}
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, analysis.Text, kinds["Group"])
	assert.Equal(t, analysis.Numeric, kinds["Temp (°F)"])
	assert.Equal(t, analysis.Text, kinds["Note"])

	assert.InDeltaSlice(t, wantConcentration, floats(t, ds, "Concentration (g/L)"), 1e-12)
	assert.InDeltaSlice(t, wantLocale, floats(t, ds, "LocaleNumber"), 1e-9)
	assert.Equal(t, []string{"A", "0.5", "70", "10", "1000", "alpha", "first"}, ds.Row(0))
}

func TestLoadCSVLocaleNumbers(t *testing.T) {
	path := writeFile(t, "analysis_dataset.csv", strings.Join(csvRows, "\n")+"\n")
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	assertLocaleDataset(t, load(t, path, opt), "analysis_dataset.csv")
}

func TestLoadXLSXSheetSelection(t *testing.T) {
	path := writeXLSXFixture(t)
	opt := DefaultOptions()
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'

	byName := opt
	byName.SheetName = "data"
	assertLocaleDataset(t, load(t, path, byName), "analysis_dataset.xlsx")

	byIndex := opt
	byIndex.SheetIndex = 2
	assertLocaleDataset(t, load(t, path, byIndex), "analysis_dataset.xlsx")

	// first sheet is a single header cell with no data
	first := load(t, path, opt)
	assert.Equal(t, []string{"placeholder"}, first.ColumnNames())
	assert.Equal(t, 0, first.NumRows())
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := writeXLSXFixture(t)
	opt := DefaultOptions()
	opt.SheetName = "Nope"
	_, err := Load(path, opt)
	require.ErrorIs(t, err, analysis.ErrParseError)
	assert.Contains(t, err.Error(), "available sheets: Ignore, Data")
}

func TestLoadMaxRows(t *testing.T) {
	path := writeFile(t, "m.csv", "v\n1\n2\n3\n4\n")
	opt := DefaultOptions()
	opt.MaxRows = 3
	ds := load(t, path, opt)
	assert.Equal(t, 4, ds.Rows)
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"processed only 3/4 rows due to MaxRows"}, ds.Warnings)
}

func TestLoadColumnTyping(t *testing.T) {
	path := writeFile(t, "mixed.csv", "num,mixed,empty,pct\n1,1,,5%\n,x,,\n3.5,2,,12.5 %\n")
	ds := load(t, path, DefaultOptions())

	kinds := map[string]analysis.ColumnKind{}
	for _, c := range ds.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, analysis.Numeric, kinds["num"])
	assert.Equal(t, analysis.Text, kinds["mixed"])
	assert.Equal(t, analysis.Text, kinds["empty"])
	assert.Equal(t, analysis.Numeric, kinds["pct"])

	num, err := ds.Resolve("num")
	require.NoError(t, err)
	assert.Equal(t, 1, num.Missing())
	assert.True(t, num.IsMissing(1))
	assert.Equal(t, []float64{1, 3.5}, floats(t, ds, "num"))
}

// With no data rows there is nothing to prove a column numeric, so every
// column is text and analyses report a non-numeric column.
func TestLoadHeaderOnly(t *testing.T) {
	path := writeFile(t, "header.csv", "a,b\n")
	ds := load(t, path, DefaultOptions())
	assert.Equal(t, 0, ds.Rows)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
	for _, c := range ds.Columns() {
		assert.Equal(t, analysis.Text, c.Kind, c.Name)
		assert.Equal(t, 0, c.Len(), c.Name)
	}

	col, err := ds.Resolve("a")
	require.NoError(t, err)
	_, err = analysis.Summarize(col)
	assert.ErrorIs(t, err, analysis.ErrNonNumericColumn)
}

func TestLoadPadsShortRowsAndTrimsHeader(t *testing.T) {
	path := writeFile(t, "short.csv", "\ufeff a , b ,c\n1,2\n3,4,5\n")
	ds := load(t, path, DefaultOptions())
	assert.Equal(t, []string{"a", "b", "c"}, ds.ColumnNames())
	assert.Equal(t, []float64{5}, floats(t, ds, "c"))
}

func TestLoadTSV(t *testing.T) {
	path := writeFile(t, "data.tsv", "x\ty\n1\t2\n3\t4\n")
	ds := load(t, path, DefaultOptions())
	assert.Equal(t, []float64{2, 4}, floats(t, ds, "y"))
}

func TestLoadUnknownExtensionFallsBackToCSV(t *testing.T) {
	path := writeFile(t, "data.dat", "x,y\n1,2\n")
	ds := load(t, path, DefaultOptions())
	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	assert.ErrorIs(t, err, analysis.ErrFileNotFound)

	cases := map[string]string{
		"empty.csv":    "",
		"dup.csv":      "a,a\n1,2\n",
		"blankhdr.csv": "a,,c\n1,2,3\n",
		"long.csv":     "a,b\n1,2,3\n",
		"quote.csv":    "a,b\n\"1,2\n",
	}
	for name, content := range cases {
		_, err := Load(writeFile(t, name, content), DefaultOptions())
		assert.ErrorIs(t, err, analysis.ErrParseError, name)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"1,234.5", Options{}, 1234.5, true},
		{"1.234,5", Options{}, 1234.5, true},
		{"0,75", Options{}, 0.75, true},
		{"12%", Options{}, 12, true},
		{"1 000", Options{}, 1000, true},
		{"1\u00A0000", Options{}, 1000, true},
		{"2\u00A0500,75", Options{}, 2500.75, true},
		{"1.000", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000, true},
		{"-3e2", Options{}, -300, true},
		{"NaN", Options{}, 0, false},
		{"inf", Options{}, 0, false},
		{"abc", Options{}, 0, false},
		{"", Options{}, 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, c.opt)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, c.in)
		}
	}
}
