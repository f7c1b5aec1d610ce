// Package tablewriter renders rows as an aligned ASCII table.
package tablewriter

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Writer collects a header and rows, then renders them with column widths
// fitted to the widest cell.
type Writer struct {
	out     io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewWriter creates a new table writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Header sets the column headers. Rows longer than the header are cut.
func (t *Writer) Header(headers ...string) {
	t.headers = headers
	t.fit(headers)
}

// Append adds a row.
func (t *Writer) Append(row ...string) {
	if len(t.headers) > 0 && len(row) > len(t.headers) {
		row = row[:len(t.headers)]
	}
	t.rows = append(t.rows, row)
	t.fit(row)
}

// Len returns the number of rows appended.
func (t *Writer) Len() int {
	return len(t.rows)
}

func (t *Writer) fit(row []string) {
	for i, cell := range row {
		if i >= len(t.widths) {
			t.widths = append(t.widths, 0)
		}
		t.widths[i] = max(t.widths[i], displayWidth(cell))
	}
}

// Render writes the table. An empty table writes nothing.
func (t *Writer) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}
	t.border()
	if len(t.headers) > 0 {
		t.row(t.headers)
		t.border()
	}
	for _, r := range t.rows {
		t.row(r)
	}
	t.border()
}

func (t *Writer) border() {
	var b strings.Builder
	b.WriteString("+")
	for _, w := range t.widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("+")
	}
	fmt.Fprintln(t.out, b.String())
}

func (t *Writer) row(cells []string) {
	var b strings.Builder
	b.WriteString("|")
	for i, w := range t.widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(&b, " %s%s |", cell, strings.Repeat(" ", w-displayWidth(cell)))
	}
	fmt.Fprintln(t.out, b.String())
}

// displayWidth is the terminal width of s, ignoring colour codes.
func displayWidth(s string) int {
	return runewidth.StringWidth(ansiRegex.ReplaceAllString(s, ""))
}
