package finder

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary is the YAML form of a Result written next to the table.
type Summary struct {
	RunID       string            `yaml:"run_id"`
	Coordinate  string            `yaml:"coordinate"`
	Units       string            `yaml:"units"`
	RA          float64           `yaml:"ra"`
	Dec         float64           `yaml:"dec"`
	Radius      float64           `yaml:"radius"`
	Catalogs    []string          `yaml:"catalogs"`
	RUWEFilter  bool              `yaml:"ruwe_filter"`
	RUWEMax     float64           `yaml:"ruwe_max"`
	MagHigh     float64           `yaml:"mag_high"`
	MagLow      float64           `yaml:"mag_low"`
	StartedAt   time.Time         `yaml:"started_at"`
	Duration    string            `yaml:"duration"`
	CatalogRows map[string]int    `yaml:"catalog_rows"`
	Counts      SummaryCounts     `yaml:"counts"`
	Output      string            `yaml:"output"`
	Exclusions  []SummaryExcluded `yaml:"exclusions,omitempty"`
}

// SummaryCounts are the pipeline stage sizes.
type SummaryCounts struct {
	Candidates int `yaml:"candidates"`
	Filtered   int `yaml:"filtered"`
	Excluded   int `yaml:"excluded"`
	Kept       int `yaml:"kept"`
}

// SummaryExcluded is one exclusion in the summary.
type SummaryExcluded struct {
	Source string `yaml:"source"`
	Reason string `yaml:"reason"`
	Detail string `yaml:"detail,omitempty"`
}

// NewSummary converts r.
func NewSummary(r *Result) Summary {
	s := Summary{
		RunID:       r.RunID,
		Coordinate:  r.Coordinate.Raw,
		Units:       r.Coordinate.Units.String(),
		RA:          r.Coordinate.RA,
		Dec:         r.Coordinate.Dec,
		Radius:      r.Params.Radius,
		Catalogs:    r.Params.Catalogs,
		RUWEFilter:  r.Params.Thresholds.RUWEFilter,
		RUWEMax:     r.Params.Thresholds.RUWEMax,
		MagHigh:     r.Params.Thresholds.MagHigh,
		MagLow:      r.Params.Thresholds.MagLow,
		StartedAt:   r.StartedAt.UTC(),
		Duration:    r.Duration.String(),
		CatalogRows: make(map[string]int, len(r.CatalogRows)),
		Counts: SummaryCounts{
			Candidates: r.Candidates,
			Filtered:   r.Filtered,
			Excluded:   r.Excluded,
			Kept:       r.Kept,
		},
		Output: r.OutputPath,
	}
	for _, c := range r.CatalogRows {
		s.CatalogRows[c.Catalog] = c.Rows
	}
	for _, e := range r.Exclusions {
		s.Exclusions = append(s.Exclusions, SummaryExcluded{Source: e.SourceID, Reason: string(e.Reason), Detail: e.Detail})
	}
	return s
}

// WriteSummary writes the YAML summary of r to path.
func WriteSummary(path string, r *Result) error {
	data, err := yaml.Marshal(NewSummary(r))
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}
