package finder

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
)

// TableHeader is the first row of every result file.
var TableHeader = []string{"Object_Name", "RA", "DEC", "Mean_Gmag", "RUWE"}

// MissingValue marks a blank catalog value (for example RUWE when the RUWE
// filter is off) in the result file and the terminal table.
const MissingValue = "--"

func formatCell(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MissingValue
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func recordCells(r Record) []string {
	return []string{
		r.Name,
		formatCell(r.RA, 8),
		formatCell(r.Dec, 8),
		formatCell(r.MeanGmag, 4),
		formatCell(r.RUWE, 4),
	}
}

// SortRecords returns a copy of records sorted ascending by MeanGmag. Equal
// magnitudes keep their relative order.
func SortRecords(records []Record) []Record {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MeanGmag < sorted[j].MeanGmag
	})
	return sorted
}

// WriteTable writes records to path as a space-delimited table, replacing
// any existing file. Names containing spaces are quoted.
func WriteTable(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := EncodeTable(f, records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeTable writes the header and one line per record to w.
func EncodeTable(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = ' '

	if err := cw.Write(TableHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordCells(r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTable reads a file written by WriteTable. SourceID is not stored in
// the file and is left empty; MissingValue cells become NaN.
func ReadTable(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = ' '
	cr.FieldsPerRecord = len(TableHeader)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	for i, h := range TableHeader {
		if rows[0][i] != h {
			return nil, fmt.Errorf("%s: unexpected header %q", path, rows[0])
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		var vals [4]float64
		for i := range vals {
			if row[i+1] == MissingValue {
				vals[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: column %s: %w", path, n+2, TableHeader[i+1], err)
			}
			vals[i] = v
		}
		records = append(records, Record{
			Name:     row[0],
			RA:       vals[0],
			Dec:      vals[1],
			MeanGmag: vals[2],
			RUWE:     vals[3],
		})
	}
	return records, nil
}
