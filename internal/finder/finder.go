// Package finder runs the single-star search: cone search, quality filter,
// binary exclusion against SIMBAD, and the sorted result table.
package finder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/coord"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/types"
)

// Finder coordinates one search run against the catalog and
// cross-reference collaborators.
type Finder struct {
	config  *config.Config
	catalog CatalogQuerier
	xref    CrossReferencer
	archive RunArchiver
	logger  *logger.Logger
	columns ColumnMap
	now     func() time.Time
}

// Option configures a Finder.
type Option func(*Finder)

// WithArchive stores every completed run in a.
func WithArchive(a RunArchiver) Option {
	return func(f *Finder) { f.archive = a }
}

// WithColumns overrides the primary catalog column names.
func WithColumns(m ColumnMap) Option {
	return func(f *Finder) { f.columns = m }
}

// New creates a Finder. A nil logger selects the default logger.
func New(cfg *config.Config, catalog CatalogQuerier, xref CrossReferencer, log *logger.Logger, opts ...Option) (*Finder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog querier is nil")
	}
	if xref == nil {
		return nil, fmt.Errorf("cross-referencer is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	f := &Finder{
		config:  cfg,
		catalog: catalog,
		xref:    xref,
		logger:  log,
		columns: DefaultColumns(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Run executes the pipeline for p and writes the result table to the
// configured output path. Invalid parameters return a *RangeError or a
// *coord.FormatError before any request is made or file written.
func (f *Finder) Run(ctx context.Context, p Params) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	v, err := p.Validate()
	if err != nil {
		return nil, err
	}
	center, err := coord.Parse(p.Coordinate)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      uuid.NewString(),
		Coordinate: center,
		Params:     v,
		StartedAt:  f.now(),
		OutputPath: f.config.Output.Path,
	}
	log := f.logger.WithRun(result.RunID)

	log.Infow("Starting search",
		"coordinate", center.String(),
		"units", center.Units.String(),
		"radius", v.Radius,
		"catalogs", v.Catalogs,
		"ruwe_filter", v.Thresholds.RUWEFilter,
		"ruwe_max", v.Thresholds.RUWEMax,
		"mag_high", v.Thresholds.MagHigh,
		"mag_low", v.Thresholds.MagLow,
	)
	if v.LargeRadius {
		log.Warnw("Large search radius, the query may take a long time", "radius", v.Radius)
	}

	tables, err := f.catalog.QueryRegion(ctx, types.RegionQuery{
		Center:    center,
		RadiusDeg: v.Radius,
		Catalogs:  v.Catalogs,
		RowLimit:  f.config.Query.RowLimit,
		Columns:   f.config.Query.Columns,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog query failed: %w", err)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("catalog query returned no tables")
	}
	for _, t := range tables {
		result.CatalogRows = append(result.CatalogRows, CatalogCount{Catalog: t.Name, Rows: t.Len()})
	}

	cands, err := ExtractCandidates(tables[0], f.columns)
	if err != nil {
		return nil, err
	}
	filtered := Filter(cands, v.Thresholds)
	result.Candidates = len(cands)
	result.Filtered = len(filtered)

	log.Infow("Quality filter applied",
		"candidates", result.Candidates,
		"passed", result.Filtered,
	)

	excluder := NewExcluder(f.xref, f.config.CrossRef, f.config.Processing.Concurrency, log)
	records, exclusions, err := excluder.Exclude(ctx, filtered)
	if err != nil {
		return nil, err
	}
	result.Records = SortRecords(records)
	result.Exclusions = exclusions
	result.Kept = len(records)
	result.Excluded = len(exclusions)

	if err := WriteTable(result.OutputPath, result.Records); err != nil {
		return nil, err
	}

	result.CompletedAt = f.now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	if path := f.config.Output.SummaryPath; path != "" {
		if err := WriteSummary(path, result); err != nil {
			return nil, err
		}
	}

	if f.archive != nil {
		if err := f.archive.SaveRun(ctx, result); err != nil {
			log.Warnw("Failed to archive run", "error", err)
		}
	}

	log.Infow("Search completed",
		"kept", result.Kept,
		"excluded", result.Excluded,
		"output", result.OutputPath,
		"duration", result.Duration,
	)

	return result, nil
}
