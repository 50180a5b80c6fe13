package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datastat-cli/internal/analysis"
)

type xlsxFormat struct{}

func (xlsxFormat) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// ReadRows reads the selected sheet. The first row is the header; cells past
// the header width must be empty.
func (xlsxFormat) ReadRows(p string, opt Options) ([]string, [][]string, error) {
	wb, err := openWorkbook(p)
	if err != nil {
		return nil, nil, err
	}
	target, err := wb.sheetPath(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, nil, err
	}
	rr := newSheetRowReader(wb.file(target), wb.shared)
	header, ok, err := rr.Next()
	for err == nil && ok && isBlank(header) {
		header, ok, err = rr.Next()
	}
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, analysis.Errorf(analysis.KindParseError, "", "%s: sheet %s has no header row", filepath.Base(p), target)
	}
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	ncol := len(header)
	var rows [][]string
	for {
		rec, ok, err := rr.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		if isBlank(rec) {
			continue
		}
		for j := ncol; j < len(rec); j++ {
			if strings.TrimSpace(rec[j]) != "" {
				return nil, nil, analysis.Errorf(analysis.KindParseError, "", "row %d has a value in column %d, header has %d", len(rows)+1, j+1, ncol)
			}
		}
		row := make([]string, ncol)
		copy(row, rec)
		rows = append(rows, row)
	}
	return header, rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// workbook is the part of an .xlsx package needed to locate and decode sheets.
type workbook struct {
	name   string
	zr     *zip.Reader
	sheets []wbSheet
	rels   map[string]string
	shared []string
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

func openWorkbook(p string) (*workbook, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, &analysis.Error{Kind: analysis.KindParseError, Detail: "open xlsx " + filepath.Base(p), Err: err}
	}
	wb := &workbook{name: filepath.Base(p), zr: zr}
	wb.sheets = parseWorkbook(wb.file("xl/workbook.xml"))
	wb.rels = parseRelationships(wb.file("xl/_rels/workbook.xml.rels"))
	wb.shared = parseSharedStrings(wb.file("xl/sharedStrings.xml"))
	return wb, nil
}

// sheetPath resolves a sheet by case-insensitive name, else by 1-based sheetId,
// else by the conventional xl/worksheets/sheetN.xml location.
func (wb *workbook) sheetPath(name string, index int) (string, error) {
	if name != "" {
		for _, s := range wb.sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := wb.rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		available := make([]string, len(wb.sheets))
		for i, s := range wb.sheets {
			available[i] = s.Name
		}
		return "", analysis.Errorf(analysis.KindParseError, "", "sheet '%s' not found in workbook '%s' (available sheets: %s)",
			name, wb.name, strings.Join(available, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range wb.sheets {
		if s.SheetID == index {
			if rel, ok := wb.rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	target := path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index))
	if wb.file(target) == nil {
		return "", analysis.Errorf(analysis.KindParseError, "", "sheet %d not found in workbook '%s'", index, wb.name)
	}
	return target, nil
}

// file returns the contents of a package member, or nil when it is absent.
func (wb *workbook) file(name string) []byte {
	for _, f := range wb.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

// eachStart calls fn for every start element named local.
func eachStart(data []byte, local string, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == local {
			fn(se)
		}
	}
}

func parseWorkbook(data []byte) []wbSheet {
	var sheets []wbSheet
	eachStart(data, "sheet", func(se xml.StartElement) {
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value // r: namespace
			}
		}
		sheets = append(sheets, s)
	})
	return sheets
}

// parseRelationships maps relationship ids to their targets.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, "Relationship", func(se xml.StartElement) {
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows out of a worksheet part.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next row with cells placed at their referenced columns.
// A cell reference past the last worksheet column is a parse error.
func (r *sheetRowReader) Next() ([]string, bool, error) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false, nil
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				row = nil
				continue
			}
			if !inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				}
			}
			col, err := colIndexFromRef(ref)
			if err != nil {
				return nil, false, err
			}
			if col < 0 {
				// cells without a reference follow the previous one
				col = len(row)
			}
			if col > maxColumn {
				return nil, false, analysis.Errorf(analysis.KindParseError, "", "row has more than %d cells", maxColumn+1)
			}
			val := r.readCellValue(typ)
			if len(row) <= col {
				tmp := make([]string, col+1)
				copy(tmp, row)
				row = tmp
			}
			row[col] = val
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true, nil
			}
		}
	}
}

// readCellValue consumes tokens up to the end of the current <c> element and
// returns its text, resolving shared string indexes.
func (r *sheetRowReader) readCellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val += sb.String()
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx := atoiSafe(val)
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx]
				}
				return ""
			}
			return val
		}
	}
}

// maxColumn is the zero-based index of XFD, the last worksheet column.
const maxColumn = 16383

// colIndexFromRef turns "C12" into 2. It returns -1 when ref has no column
// letters and a parse error when the column lies past XFD.
func colIndexFromRef(ref string) (int, error) {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1, nil
		}
		if idx-1 > maxColumn {
			return 0, analysis.Errorf(analysis.KindParseError, "", "cell reference %q is past column XFD", ref)
		}
	}
	return idx - 1, nil
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
