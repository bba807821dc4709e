package finder

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

var headerStyle = color.New(color.FgCyan, color.OpBold)

// RenderTable prints records as an aligned table for the terminal.
func RenderTable(w io.Writer, records []Record, useColor bool) error {
	cells := make([][]string, 0, len(records)+1)
	cells = append(cells, TableHeader)
	for _, r := range records {
		cells = append(cells, recordCells(r))
	}

	widths := make([]int, len(TableHeader))
	for _, row := range cells {
		for i, c := range row {
			if cw := runewidth.StringWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for n, row := range cells {
		parts := make([]string, len(row))
		for i, c := range row {
			if i == 0 {
				parts[i] = runewidth.FillRight(c, widths[i])
			} else {
				parts[i] = runewidth.FillLeft(c, widths[i])
			}
		}
		line := strings.TrimRight(strings.Join(parts, "  "), " ")
		if n == 0 && useColor {
			line = headerStyle.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
