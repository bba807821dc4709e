package finder

import (
	"context"
	"time"

	"github.com/dbsmedya/starsift/internal/coord"
	"github.com/dbsmedya/starsift/internal/types"
)

// CatalogQuerier runs cone searches. Implemented by vizier.Client.
type CatalogQuerier interface {
	QueryRegion(ctx context.Context, q types.RegionQuery) ([]*types.Table, error)
}

// CrossReferencer resolves catalog identifiers. Implemented by simbad.Client.
type CrossReferencer interface {
	QueryIdentifiers(ctx context.Context, key string) ([]string, error)
	QueryObject(ctx context.Context, key string) (*types.ObjectInfo, error)
}

// RunArchiver persists completed runs. Implemented by store.RunStore.
type RunArchiver interface {
	SaveRun(ctx context.Context, r *Result) error
}

// Candidate is one row of the primary catalog.
type Candidate struct {
	SourceID string
	RA       float64
	Dec      float64
	Gmag     float64
	RUWE     float64 // NaN when the catalog left it blank
}

// Record is one row of the result table.
type Record struct {
	Name     string
	RA       float64
	Dec      float64
	MeanGmag float64
	RUWE     float64
	SourceID string
}

// ExclusionReason tells why a candidate was dropped by the cross-reference step.
type ExclusionReason string

const (
	ReasonBinary       ExclusionReason = "binary"
	ReasonUnresolved   ExclusionReason = "unresolved"
	ReasonLookupFailed ExclusionReason = "lookup_failed"
)

// Exclusion records a dropped candidate.
type Exclusion struct {
	SourceID string
	Reason   ExclusionReason
	Detail   string
}

// CatalogCount is the number of rows a catalog returned.
type CatalogCount struct {
	Catalog string
	Rows    int
}

// Result contains the outcome and statistics of a run.
type Result struct {
	RunID       string
	Coordinate  coord.Coordinate
	Params      Validated
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration

	CatalogRows []CatalogCount
	Candidates  int // rows of the primary catalog with a usable Gmag
	Filtered    int // candidates that passed the quality filter
	Excluded    int
	Kept        int

	Records    []Record // sorted by MeanGmag
	Exclusions []Exclusion
	OutputPath string
}
