// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under bold headers with aligned columns
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	noColor := false
	if opts != nil {
		noColor = opts.NoColor
	}

	return &Table{
		writer:  w,
		headers: headers,
		rows:    make([][]string, 0),
		noColor: noColor,
	}
}

// AddRow adds a row; cells beyond the header count are dropped
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = width(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && width(cell) > widths[i] {
				widths[i] = width(cell)
			}
		}
	}

	bold := t.color(color.Bold, color.FgCyan)
	for i, header := range t.headers {
		if i == len(t.headers)-1 {
			bold.Fprint(t.writer, header)
			break
		}
		bold.Fprint(t.writer, padRight(header, widths[i]))
		t.gap(i, len(t.headers))
	}
	fmt.Fprintln(t.writer)

	gray := t.color(color.FgHiBlack)
	for i, w := range widths {
		gray.Fprint(t.writer, strings.Repeat("─", w))
		t.gap(i, len(widths))
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		n := len(row)
		if n > len(widths) {
			n = len(widths)
		}
		for i := 0; i < n; i++ {
			cell := row[i]
			if i == n-1 {
				fmt.Fprint(t.writer, cell)
				break
			}
			fmt.Fprint(t.writer, padRight(cell, widths[i]))
			t.gap(i, n)
		}
		fmt.Fprintln(t.writer)
	}
}

func (t *Table) gap(i, n int) {
	if i < n-1 {
		fmt.Fprint(t.writer, "  ")
	}
}

func (t *Table) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

// PropertiesTable renders props as a key/value table sorted by key
func PropertiesTable(w io.Writer, props map[string]string, noColor bool) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := NewTable(w, []string{"Property", "Value"}, &TableOptions{NoColor: noColor})
	for _, k := range keys {
		table.AddRow(k, props[k])
	}
	table.Render()
}

// Header renders a styled header with an underline
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	bold.Fprintln(w, title)
	gray.Fprintln(w, strings.Repeat("─", width(title)))
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, w int) string {
	if width(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-width(s))
}
