// Package ledger models the per-tenant submissions spreadsheet and writes
// to it through the Google Sheets API.
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deepnoodle-ai/taskdesk"
)

// Column positions, zero-based.
const (
	ColumnTimestamp = iota
	ColumnDisplayTimestamp
	ColumnTitle
	ColumnRequirement
	ColumnWebsiteURL
	ColumnSystemAccess
	ColumnScreenRecording
	ColumnCreatedBy
	ColumnTaskID
	ColumnStatus
	ColumnNotes

	ColumnCount
)

// DisplayTimeFormat is the human readable timestamp layout, always UTC.
const DisplayTimeFormat = "Mon, 02 Jan 2006 15:04:05"

// Row is one ledger row in column order. Task id, status and notes are
// blank when appended; the task id is filled in later.
type Row [ColumnCount]string

// NewRow builds the row appended for a submission received at now.
func NewRow(sub taskdesk.EnrichedSubmission, now time.Time) Row {
	var r Row
	r[ColumnTimestamp] = strconv.FormatInt(now.Unix(), 10)
	r[ColumnDisplayTimestamp] = now.UTC().Format(DisplayTimeFormat)
	r[ColumnTitle] = sub.Title
	r[ColumnRequirement] = sub.Requirement
	r[ColumnWebsiteURL] = sub.WebsiteURL
	r[ColumnSystemAccess] = sub.SystemAccess
	r[ColumnScreenRecording] = sub.ScreenRecording
	r[ColumnCreatedBy] = sub.CreatedBy
	return r
}

// Values converts the row to the cell values the Sheets API expects.
func (r Row) Values() []interface{} {
	out := make([]interface{}, len(r))
	for i, v := range r {
		out[i] = v
	}
	return out
}

// ColumnLetter converts a zero-based column index to its A1 letters
// (0 → A, 8 → I, 26 → AA).
func ColumnLetter(index int) string {
	if index < 0 {
		panic(fmt.Sprintf("ledger: negative column index %d", index))
	}
	var letters []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return string(letters)
}

// RowRange is the A1 range covering every column of the sheet.
func RowRange(sheet string) string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(sheet), ColumnLetter(ColumnCount-1))
}

// CellRange is the A1 address of one cell. row is one-based.
func CellRange(sheet string, row, column int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), ColumnLetter(column), row)
}

// ParseRowIndex extracts the first row number from an A1 range such as
// "submissions!A15:K15".
func ParseRowIndex(a1 string) (int, error) {
	cells := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		cells = a1[i+1:]
	}
	start := strings.IndexFunc(cells, isDigit)
	if start < 0 {
		return 0, fmt.Errorf("no row number in range %q", a1)
	}
	end := start
	for end < len(cells) && isDigit(rune(cells[end])) {
		end++
	}
	row, err := strconv.Atoi(cells[start:end])
	if err != nil || row < 1 {
		return 0, fmt.Errorf("invalid row number in range %q", a1)
	}
	return row, nil
}

// URL returns the browser link to a spreadsheet.
func URL(ledgerID string) string {
	return "https://docs.google.com/spreadsheets/d/" + ledgerID
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func quoteSheet(name string) string {
	if name != "" && strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || isDigit(r))
	}) < 0 {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
