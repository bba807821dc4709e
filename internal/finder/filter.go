package finder

import (
	"fmt"
	"math"

	"github.com/dbsmedya/starsift/internal/types"
)

// ColumnMap names the primary catalog columns a Candidate is read from.
type ColumnMap struct {
	Source string
	RA     string
	Dec    string
	Gmag   string
	RUWE   string
}

// DefaultColumns returns the Gaia EDR3 column names on VizieR.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Source: "Source",
		RA:     "RA_ICRS",
		Dec:    "DE_ICRS",
		Gmag:   "Gmag",
		RUWE:   "RUWE",
	}
}

func (m ColumnMap) names() []string {
	return []string{m.Source, m.RA, m.Dec, m.Gmag, m.RUWE}
}

// ExtractCandidates converts catalog rows to candidates. Rows without a
// source identifier or a usable Gmag are skipped. An empty table yields no
// candidates; a populated table missing a required column is an error.
func ExtractCandidates(t *types.Table, cols ColumnMap) ([]Candidate, error) {
	if t.Len() == 0 {
		return nil, nil
	}
	for _, name := range cols.names() {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("catalog %s: missing column %q", t.Name, name)
		}
	}

	cands := make([]Candidate, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := types.Cell(row, cols.Source)
		gmag, ok := types.ToFloat64(types.Cell(row, cols.Gmag))
		if id == "" || !ok {
			continue
		}
		cands = append(cands, Candidate{
			SourceID: id,
			RA:       types.ToFloat64OrNaN(types.Cell(row, cols.RA)),
			Dec:      types.ToFloat64OrNaN(types.Cell(row, cols.Dec)),
			Gmag:     gmag,
			RUWE:     types.ToFloat64OrNaN(types.Cell(row, cols.RUWE)),
		})
	}
	return cands, nil
}

// Filter returns the candidates passing the quality cuts, in input order.
// cands is not modified.
func Filter(cands []Candidate, th Thresholds) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if Passes(c, th) {
			out = append(out, c)
		}
	}
	return out
}

// Passes reports whether c survives the cuts: RUWE below the bound when the
// RUWE cut is on, and Gmag strictly between the magnitude limits.
func Passes(c Candidate, th Thresholds) bool {
	if th.RUWEFilter && (math.IsNaN(c.RUWE) || c.RUWE >= th.RUWEMax) {
		return false
	}
	if c.Gmag <= th.MagHigh {
		return false
	}
	return c.Gmag < th.MagLow
}
