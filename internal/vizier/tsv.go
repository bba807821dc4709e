package vizier

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dbsmedya/starsift/internal/types"
)

type parseState int

const (
	stateComments parseState = iota // preamble or between tables
	stateHeader                     // header seen, expecting units or dashes
	stateRows                       // reading data rows
)

// ParseTSV reads an ASU-TSV document. A document may hold several tables,
// each introduced by a "#Table" comment block followed by a header line, an
// optional units line, a dashes line and the data rows. A catalog with no
// matching rows yields no table at all.
func ParseTSV(r io.Reader) ([]*types.Table, error) {
	var (
		tables      []*types.Table
		cur         *types.Table
		pendingName string
		inTable     bool
		state       = stateComments
		lineNo      int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, "#") {
			state = stateComments
			cur = nil
			switch {
			case strings.HasPrefix(line, "#Table"):
				inTable = true
				pendingName = ""
			case strings.HasPrefix(line, "#Name:") && inTable && pendingName == "":
				pendingName = strings.TrimSpace(strings.TrimPrefix(line, "#Name:"))
			}
			continue
		}

		// A units line may be all tabs, so blank lines only end a table
		// outside the header.
		if strings.TrimSpace(line) == "" && state != stateHeader {
			state = stateComments
			cur = nil
			continue
		}

		switch state {
		case stateComments:
			cur = &types.Table{Name: pendingName, Columns: splitCells(line)}
			tables = append(tables, cur)
			pendingName = ""
			inTable = false
			state = stateHeader

		case stateHeader:
			if isSeparator(line) {
				state = stateRows
				continue
			}
			if cur.Units != nil {
				return nil, fmt.Errorf("line %d: expected dashes separator after units line", lineNo)
			}
			cur.Units = alignUnits(splitCells(line), len(cur.Columns))

		case stateRows:
			cur.Rows = append(cur.Rows, types.NewRow(cur.Columns, splitCells(line)))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}

	return tables, nil
}

func splitCells(line string) []string {
	cells := strings.Split(line, "\t")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// isSeparator reports whether line is the "----\t---" row under the header.
func isSeparator(line string) bool {
	seen := false
	for _, r := range line {
		switch r {
		case '-':
			seen = true
		case '\t', ' ':
		default:
			return false
		}
	}
	return seen
}

func alignUnits(units []string, n int) []string {
	out := make([]string, n)
	copy(out, units)
	return out
}
