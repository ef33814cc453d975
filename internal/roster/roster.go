// Package roster reads team registrations from the entry sheet, either the
// Excel workbook itself or a CSV export of it.
//
// Two layouts are accepted, both with a leading index column and a header row:
//
//	STT | Cặp VĐV (VĐV 1 - VĐV 2) | Đơn vị | Bảng
//	STT | VĐV 1 | VĐV 2 | Đơn vị | Bảng
package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abrezinsky/picklecup/internal/models"
)

// MissingPartner stands in for a second player the sheet did not name.
const MissingPartner = "???"

// Content types of the two accepted file formats.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// TemplateSheet names the sheet of the downloadable template.
const TemplateSheet = "DanhSachDangKy"

// pairSeparators are tried in order; the first one found splits the pair cell.
var pairSeparators = []string{" - ", " – ", "-", " & ", " và ", ","}

// zipMagic starts every .xlsx file.
var zipMagic = []byte("PK\x03\x04")

var templateRows = [][]string{
	{"STT", "Cặp VĐV (VĐV 1 - VĐV 2)", "Đơn vị", "Bảng (A/B/C)"},
	{"1", "Nguyễn Văn A - Trần Thị B", "Điện lực TP", "A"},
	{"2", "Lê Văn C - Hoàng Thị D", "Phòng Kỹ Thuật", "A"},
	{"3", "Phạm Văn E - Vũ Thị F", "Điện lực Yên Sơn", "B"},
	{"4", "Đặng Văn G - Ngô Thị H", "Phòng Kinh Doanh", "B"},
	{"5", "Trịnh Văn I - Lý Thị K", "Ban Giám Đốc", "C"},
}

// RowError describes a row that was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result is the outcome of a parse. Teams have no IDs or groups yet.
type Result struct {
	Teams     []models.Team `json:"teams"`
	RowErrors []RowError    `json:"rowErrors"`
}

func newResult() Result {
	return Result{Teams: []models.Team{}, RowErrors: []RowError{}}
}

// Read parses an uploaded sheet. A workbook is recognised by its file name,
// its content type or its zip signature; anything else is read as CSV.
func Read(r io.Reader, filename, contentType string) (Result, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zipMagic))
	if isXLSX(filename, contentType) || bytes.Equal(head, zipMagic) {
		return ParseXLSX(br)
	}
	return Parse(br)
}

func isXLSX(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return mediaType == ContentTypeXLSX
}

// Parse reads every data row of a CSV export. Bad rows are reported in
// RowErrors and do not stop the import; only an unreadable stream returns an error.
func Parse(r io.Reader) (Result, error) {
	res := newResult()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.RowErrors = append(res.RowErrors, RowError{Row: row, Reason: parseErr.Err.Error()})
				continue
			}
			return res, fmt.Errorf("read roster: %w", err)
		}
		res.add(row, record)
	}
	return res, nil
}

// ParseXLSX reads the first sheet of a workbook with the same row rules as Parse.
func ParseXLSX(r io.Reader) (Result, error) {
	res := newResult()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return res, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return res, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return res, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	for i, record := range rows {
		res.add(i+1, record)
	}
	return res, nil
}

// add handles one sheet row; row 1 is the header.
func (res *Result) add(row int, record []string) {
	if row == 1 || blank(record) {
		return
	}
	team, reason, ok := parseRow(record)
	if !ok {
		if reason != "" {
			res.RowErrors = append(res.RowErrors, RowError{Row: row, Reason: reason})
		}
		return
	}
	res.Teams = append(res.Teams, team)
}

// parseRow returns ok=false with an empty reason for header rows, which are
// skipped silently.
func parseRow(record []string) (models.Team, string, bool) {
	if len(record) < 2 {
		return models.Team{}, "expected at least 2 columns", false
	}
	pair := cell(record, 1)
	if pair == "" {
		return models.Team{}, "missing player names", false
	}
	lower := strings.ToLower(pair)
	if strings.Contains(lower, "tên vđv") || strings.Contains(lower, "cặp vđv") {
		return models.Team{}, "", false
	}

	var t models.Team
	var group string
	if sep := findSeparator(pair); sep != "" {
		parts := strings.Split(pair, sep)
		t.Name1 = strings.TrimSpace(parts[0])
		t.Name2 = MissingPartner
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			t.Name2 = strings.TrimSpace(parts[1])
		}
		t.Org = cell(record, 2)
		group = cell(record, 3)
	} else {
		t.Name1 = pair
		t.Name2 = cell(record, 2)
		if t.Name2 == "" {
			t.Name2 = MissingPartner
		}
		t.Org = cell(record, 3)
		group = cell(record, 4)
	}
	if t.Name1 == "" {
		return models.Team{}, "missing first player name", false
	}
	t.InitialGroupName = strings.ToUpper(group)
	return t, "", true
}

// Clean drops teams that cannot be imported and reports each one by its
// 1-based position in teams.
func Clean(teams []models.Team) ([]models.Team, []RowError) {
	kept := make([]models.Team, 0, len(teams))
	skipped := []RowError{}
	seen := make(map[string]bool, len(teams))
	for i, t := range teams {
		switch {
		case strings.TrimSpace(t.Name1) == "":
			skipped = append(skipped, RowError{Row: i + 1, Reason: "missing first player name"})
		case t.ID != "" && seen[t.ID]:
			skipped = append(skipped, RowError{Row: i + 1, Reason: fmt.Sprintf("duplicate team id %q", t.ID)})
		default:
			if t.ID != "" {
				seen[t.ID] = true
			}
			kept = append(kept, t)
		}
	}
	return kept, skipped
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func findSeparator(s string) string {
	for _, sep := range pairSeparators {
		if strings.Contains(s, sep) {
			return sep
		}
	}
	return ""
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(record[i], "\ufeff"))
}

// WriteTemplate writes a sample workbook in the single-column pair layout.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return fmt.Errorf("write roster template: %w", err)
	}
	for i, row := range templateRows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if i > 0 {
			values[0] = i
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("write roster template: %w", err)
		}
		if err := f.SetSheetRow(TemplateSheet, axis, &values); err != nil {
			return fmt.Errorf("write roster template: %w", err)
		}
	}
	for col, width := range map[string]float64{"A": 5, "B": 40, "C": 25, "D": 10} {
		if err := f.SetColWidth(TemplateSheet, col, col, width); err != nil {
			return fmt.Errorf("write roster template: %w", err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write roster template: %w", err)
	}
	return nil
}

// WriteTemplateCSV writes the same sample as CSV.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(templateRows); err != nil {
		return fmt.Errorf("write roster template: %w", err)
	}
	return nil
}
