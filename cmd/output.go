package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/spigell/prodanswer/internal/utils"
)

const maxCellLength = 60

type printer struct {
	w      io.Writer
	format string
}

type table struct {
	title  string
	header []string
	rows   [][]string
}

func newTable(title string, header ...string) *table {
	return &table{title: title, header: header}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// render prints v as indented JSON or the tables as borderless aligned text.
func (p *printer) render(v any, tables ...*table) error {
	if p.format == outputJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(p.w)
		}
		if err := p.table(t); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) table(t *table) error {
	if t.title != "" {
		fmt.Fprintln(p.w, t.title)
	}

	tw := tablewriter.NewWriter(p.w)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetBorder(false)
	tw.SetHeaderLine(false)
	tw.SetColumnSeparator("")
	tw.SetCenterSeparator("")
	tw.SetRowSeparator("")
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)

	if len(t.header) > 0 {
		tw.SetHeader(t.header)
	}
	for _, row := range t.rows {
		cells := make([]string, max(len(row), len(t.header)))
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = cellText(cell)
		}
		tw.Append(cells)
	}
	tw.Render()

	if len(t.rows) == 0 {
		fmt.Fprintln(p.w, "(none)")
	}
	return nil
}

// cellText keeps a cell on one line and short enough for a terminal.
func cellText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	return utils.TruncateForLog(s, maxCellLength)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func score(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// when renders a backend timestamp as a date with its relative time.
func when(raw string) string {
	if _, ok := utils.ParseTimestamp(raw); !ok {
		return ""
	}
	return utils.FormatDate(raw) + " (" + utils.FormatRelativeTime(raw) + ")"
}
