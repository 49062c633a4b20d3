// Package table prints aligned text tables for the diagnostic commands.
package table

import (
	"fmt"
	"io"
	"strings"
)

// Column describes one column. Empty cells render as Blank ("-" if unset).
type Column struct {
	Header string
	Blank  string
	Format func(string) string
	Right  bool
}

type Table struct {
	cols  []Column
	rows  [][]string
	width []int
}

func New(cols ...Column) *Table {
	t := &Table{cols: cols, width: make([]int, len(cols))}
	for i := range t.cols {
		if t.cols[i].Blank == "" {
			t.cols[i].Blank = "-"
		}
		t.width[i] = visible(t.cols[i].Header)
	}
	return t
}

// Row appends a row; missing trailing cells are blank and extra cells are dropped.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.cols))
	for i := range row {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		if v == "" {
			v = t.cols[i].Blank
		}
		row[i] = v
		if n := visible(v); n > t.width[i] {
			t.width[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Rowf appends a two column row, the second formatted with fmt.Sprintf.
func (t *Table) Rowf(key, format string, args ...any) {
	t.Row(key, fmt.Sprintf(format, args...))
}

// Rule appends a horizontal rule.
func (t *Table) Rule() {
	t.rows = append(t.rows, nil)
}

func (t *Table) Len() int {
	n := 0
	for _, r := range t.rows {
		if r != nil {
			n++
		}
	}
	return n
}

func (t *Table) Render(w io.Writer) error {
	head := make([]string, len(t.cols))
	for i, c := range t.cols {
		head[i] = t.pad(i, c.Header)
	}
	if err := t.line(w, head); err != nil {
		return err
	}
	if err := t.line(w, t.rule()); err != nil {
		return err
	}
	for _, row := range t.rows {
		if row == nil {
			if err := t.line(w, t.rule()); err != nil {
				return err
			}
			continue
		}
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = t.pad(i, v)
		}
		if err := t.line(w, cells); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) line(w io.Writer, cells []string) error {
	_, err := io.WriteString(w, strings.TrimRight(strings.Join(cells, "  "), " ")+"\n")
	return err
}

func (t *Table) rule() []string {
	out := make([]string, len(t.cols))
	for i, n := range t.width {
		out[i] = strings.Repeat("-", n)
	}
	return out
}

// pad aligns before formatting so escape codes do not count toward width.
func (t *Table) pad(i int, s string) string {
	fill := strings.Repeat(" ", max(0, t.width[i]-visible(s)))
	if f := t.cols[i].Format; f != nil {
		s = f(s)
	}
	if t.cols[i].Right {
		return fill + s
	}
	return s + fill
}

// visible counts runes outside ANSI escape sequences.
func visible(s string) int {
	n := 0
	esc := false
	for _, r := range s {
		switch {
		case r == '\033':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			n++
		}
	}
	return n
}

