package finder

import (
	"math"
	"strings"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/sqlutil"
)

const (
	// LargeRadiusDeg is the radius from which a run is expected to be slow.
	LargeRadiusDeg = 2.0
	// DefaultRUWEMax is the RUWE bound applied when none is given.
	DefaultRUWEMax = 1.2
)

// Params are the inputs of one run.
type Params struct {
	Coordinate string
	Radius     float64 // degrees
	Catalogs   []string
	RUWEFilter bool
	RUWEMax    float64
	MagHigh    float64 // bright limit, exclusive
	MagLow     float64 // faint limit, exclusive
}

// Thresholds are the quality cuts applied by Filter.
type Thresholds struct {
	RUWEFilter bool
	RUWEMax    float64
	MagHigh    float64
	MagLow     float64
}

// Validated holds Params after range checks and defaulting.
type Validated struct {
	Radius      float64
	LargeRadius bool
	Catalogs    []string
	Thresholds  Thresholds
}

// ParamsFromConfig builds run parameters from the query section.
func ParamsFromConfig(cfg *config.Config) Params {
	q := cfg.Query
	return Params{
		Coordinate: q.Coordinate,
		Radius:     q.Radius,
		Catalogs:   append([]string(nil), q.Catalogs...),
		RUWEFilter: q.RUWEFilter,
		RUWEMax:    q.RUWEMax,
		MagHigh:    q.MagHigh,
		MagLow:     q.MagLow,
	}
}

// Validate checks numeric ranges and catalog names. It does not look at the
// coordinate; see coord.Parse.
func (p Params) Validate() (Validated, error) {
	var v Validated

	if math.IsNaN(p.Radius) || math.IsInf(p.Radius, 0) {
		return v, &RangeError{Param: "radius", Value: p.Radius, Message: "search radius must be a finite number"}
	}
	v.Radius = math.Abs(p.Radius)
	if v.Radius == 0 {
		return v, &RangeError{Param: "radius", Value: p.Radius, Message: "search radius is 0"}
	}
	v.LargeRadius = v.Radius >= LargeRadiusDeg

	if math.IsNaN(p.MagHigh) || math.IsNaN(p.MagLow) {
		return v, &RangeError{Param: "magnitude", Value: []float64{p.MagHigh, p.MagLow}, Message: "magnitudes must be numbers"}
	}
	if p.MagLow <= p.MagHigh {
		return v, &RangeError{
			Param:   "magnitude",
			Value:   []float64{p.MagHigh, p.MagLow},
			Message: "invalid magnitude range: the faint limit must be greater than the bright limit",
		}
	}

	ruweMax := p.RUWEMax
	switch {
	case math.IsNaN(ruweMax) || ruweMax < 0:
		return v, &RangeError{Param: "ruwe_max", Value: p.RUWEMax, Message: "RUWE bound must not be negative"}
	case ruweMax == 0:
		ruweMax = DefaultRUWEMax
	}

	catalogs := make([]string, 0, len(p.Catalogs))
	for _, c := range p.Catalogs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !sqlutil.IsValidCatalogName(c) {
			return v, &RangeError{Param: "catalog", Value: c, Message: "not a VizieR catalog designation"}
		}
		catalogs = append(catalogs, c)
	}
	if len(catalogs) == 0 {
		catalogs = append(catalogs, config.DefaultCatalogs...)
	}
	v.Catalogs = catalogs

	v.Thresholds = Thresholds{
		RUWEFilter: p.RUWEFilter,
		RUWEMax:    ruweMax,
		MagHigh:    p.MagHigh,
		MagLow:     p.MagLow,
	}
	return v, nil
}
