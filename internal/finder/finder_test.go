package finder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/coord"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/simbad"
	"github.com/dbsmedya/starsift/internal/types"
	"github.com/dbsmedya/starsift/internal/vizier"
)

const scenarioCoordinate = "11 02 24.8763629208 -77 33 35.667131796"

func createTestConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Query.Coordinate = scenarioCoordinate
	cfg.Output.Path = filepath.Join(t.TempDir(), config.DefaultOutputPath)
	return cfg
}

// scenarioRows covers every filter and exclusion branch.
var scenarioRows = [][]string{
	{"100", "165.60", "-77.50", "8.5", "0.90"},  // kept
	{"101", "165.61", "-77.51", "5.2", "1.00"},  // WDS member
	{"102", "165.62", "-77.52", "6.1", "1.10"},  // kept
	{"103", "165.63", "-77.53", "7.0", "1.50"},  // RUWE too high
	{"104", "165.64", "-77.54", "2.5", "0.80"},  // too bright
	{"105", "165.65", "-77.55", "10.0", "0.80"}, // at faint limit
	{"106", "165.66", "-77.56", "9.0", ""},      // RUWE missing
	{"107", "165.67", "-77.57", "4.0", "0.95"},  // unknown to SIMBAD
	{"108", "165.68", "-77.58", "", "0.90"},     // Gmag missing
	{"109", "165.69", "-77.59", "3.5", "1.19"},  // lookup fails
}

func scenarioXref() *stubXref {
	return &stubXref{
		idents: map[string][]string{
			"Gaia DR3 100": {"HD 100", "Gaia DR3 100"},
			"Gaia DR3 101": {"HD 101", "WDS J11024-7734A"},
			"Gaia DR3 102": {"*  alf Tst"},
			"Gaia DR3 103": {"HD 103"},
			"Gaia DR3 104": {"HD 104"},
			"Gaia DR3 105": {"HD 105"},
			"Gaia DR3 106": {"HD 106"},
		},
		objects: map[string]types.ObjectInfo{
			"Gaia DR3 100": {MainID: "HD 100", RA: 165.600001, Dec: -77.500001},
			"Gaia DR3 102": {MainID: "*  alf Tst", RA: 165.620001, Dec: -77.520001},
		},
		failing: map[string]bool{"Gaia DR3 109": true},
	}
}

func scenarioCatalog() *stubCatalog {
	return &stubCatalog{tables: []*types.Table{
		gaiaTable(scenarioRows...),
		{Name: "B/wds", Columns: []string{"WDS"}},
	}}
}

func TestNew_Validation(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := New(nil, &stubCatalog{}, &stubXref{}, nil)
	assert.Error(t, err)
	_, err = New(cfg, nil, &stubXref{}, nil)
	assert.Error(t, err)
	_, err = New(cfg, &stubCatalog{}, nil, nil)
	assert.Error(t, err)

	f, err := New(cfg, &stubCatalog{}, &stubXref{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, f.logger)
	assert.Equal(t, DefaultColumns(), f.columns)
}

func TestRun_Scenario(t *testing.T) {
	cfg := createTestConfig(t)
	catalog := scenarioCatalog()
	archive := &stubArchive{}

	f, err := New(cfg, catalog, scenarioXref(), logger.NewNop(), WithArchive(archive))
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)

	require.Len(t, catalog.calls, 1)
	q := catalog.calls[0]
	assert.Equal(t, coord.UnitsHourDegree, q.Center.Units)
	assert.InDelta(t, 165.6036515121, q.Center.RA, 1e-9)
	assert.InDelta(t, -77.5599075366, q.Center.Dec, 1e-9)
	assert.Equal(t, 0.5, q.RadiusDeg)
	assert.Equal(t, []string{"I/350/gaiaedr3", "B/wds"}, q.Catalogs)
	assert.Equal(t, -1, q.RowLimit)
	assert.Equal(t, cfg.Query.Columns, q.Columns)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []CatalogCount{{"I/350/gaiaedr3", 10}, {"B/wds", 0}}, result.CatalogRows)
	assert.Equal(t, 9, result.Candidates)
	assert.Equal(t, 5, result.Filtered)
	assert.Equal(t, 2, result.Kept)
	assert.Equal(t, 3, result.Excluded)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "* alf Tst", result.Records[0].Name)
	assert.Equal(t, "102", result.Records[0].SourceID)
	assert.Equal(t, "HD 100", result.Records[1].Name)

	reasons := map[string]ExclusionReason{}
	for _, e := range result.Exclusions {
		reasons[e.SourceID] = e.Reason
	}
	assert.Equal(t, map[string]ExclusionReason{
		"101": ReasonBinary,
		"107": ReasonUnresolved,
		"109": ReasonLookupFailed,
	}, reasons)

	written, err := ReadTable(cfg.Output.Path)
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "* alf Tst", written[0].Name)
	assert.InDelta(t, 165.620001, written[0].RA, 1e-8)
	assert.InDelta(t, 6.1, written[0].MeanGmag, 1e-4)
	assert.InDelta(t, 1.1, written[0].RUWE, 1e-4)

	require.Len(t, archive.saved, 1)
	assert.Same(t, result, archive.saved[0])
}

func TestRun_NoRUWEFilter(t *testing.T) {
	cfg := createTestConfig(t)
	xref := scenarioXref()
	xref.idents["Gaia DR3 103"] = []string{"HD 103"}
	xref.objects["Gaia DR3 103"] = types.ObjectInfo{MainID: "HD 103", RA: 1, Dec: 1}
	xref.objects["Gaia DR3 106"] = types.ObjectInfo{MainID: "HD 106", RA: 2, Dec: 2}

	f, err := New(cfg, scenarioCatalog(), xref, logger.NewNop())
	require.NoError(t, err)

	p := ParamsFromConfig(cfg)
	p.RUWEFilter = false
	result, err := f.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Filtered)
	names := []string{}
	for _, r := range result.Records {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"* alf Tst", "HD 103", "HD 100", "HD 106"}, names)
}

func TestRun_InvalidParamsWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "zero radius",
			mutate: func(p *Params) { p.Radius = 0 },
			check: func(t *testing.T, err error) {
				var re *RangeError
				assert.ErrorAs(t, err, &re)
			},
		},
		{
			name:   "inverted magnitudes",
			mutate: func(p *Params) { p.MagHigh, p.MagLow = 10, 3 },
			check: func(t *testing.T, err error) {
				var re *RangeError
				assert.ErrorAs(t, err, &re)
			},
		},
		{
			name:   "colon coordinate",
			mutate: func(p *Params) { p.Coordinate = "11:02:24 -77:33:35" },
			check: func(t *testing.T, err error) {
				var fe *coord.FormatError
				require.ErrorAs(t, err, &fe)
				assert.Contains(t, fe.Message, "separate by spaces only")
			},
		},
		{
			name:   "empty coordinate",
			mutate: func(p *Params) { p.Coordinate = "" },
			check: func(t *testing.T, err error) {
				var fe *coord.FormatError
				assert.ErrorAs(t, err, &fe)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig(t)
			catalog := scenarioCatalog()
			f, err := New(cfg, catalog, scenarioXref(), logger.NewNop())
			require.NoError(t, err)

			p := ParamsFromConfig(cfg)
			tt.mutate(&p)
			_, err = f.Run(context.Background(), p)
			require.Error(t, err)
			tt.check(t, err)

			assert.Empty(t, catalog.calls)
			_, statErr := os.Stat(cfg.Output.Path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRun_CatalogFailure(t *testing.T) {
	cfg := createTestConfig(t)
	catalog := &stubCatalog{err: &remote.CollaboratorError{Service: "vizier", Op: "query_region", StatusCode: 503, Err: errors.New("down")}}

	f, err := New(cfg, catalog, scenarioXref(), logger.NewNop())
	require.NoError(t, err)

	_, err = f.Run(context.Background(), ParamsFromConfig(cfg))
	require.Error(t, err)
	assert.True(t, remote.IsCollaboratorError(err))

	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_NoTables(t *testing.T) {
	cfg := createTestConfig(t)
	f, err := New(cfg, &stubCatalog{}, scenarioXref(), logger.NewNop())
	require.NoError(t, err)

	_, err = f.Run(context.Background(), ParamsFromConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tables")
}

func TestRun_EmptyRegionWritesHeader(t *testing.T) {
	cfg := createTestConfig(t)
	catalog := &stubCatalog{tables: []*types.Table{{Name: "I/350/gaiaedr3"}}}
	f, err := New(cfg, catalog, scenarioXref(), logger.NewNop())
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)
	assert.Zero(t, result.Kept)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, "Object_Name RA DEC Mean_Gmag RUWE\n", string(data))
}

func TestRun_Canceled(t *testing.T) {
	cfg := createTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	xref := scenarioXref()
	xref.onIdentifiers = func(context.Context, string) { cancel() }

	f, err := New(cfg, scenarioCatalog(), xref, logger.NewNop())
	require.NoError(t, err)

	_, err = f.Run(ctx, ParamsFromConfig(cfg))
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	cfg := createTestConfig(t)
	archive := &stubArchive{err: errors.New("mysql gone")}

	f, err := New(cfg, scenarioCatalog(), scenarioXref(), logger.NewNop(), WithArchive(archive))
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Kept)
	assert.Len(t, archive.saved, 1)
}

func TestRun_WritesSummary(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Output.SummaryPath = filepath.Join(t.TempDir(), "summary.yaml")

	f, err := New(cfg, scenarioCatalog(), scenarioXref(), logger.NewNop())
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: "+result.RunID)
	assert.Contains(t, string(data), "units: hourangle/degree")
}

func TestRun_CustomColumns(t *testing.T) {
	cfg := createTestConfig(t)
	cols := []string{"DR3Name", "RAdeg", "DEdeg", "Gmag", "RUWE"}
	tbl := &types.Table{Name: "I/355/gaiadr3", Columns: cols, Rows: []types.Row{
		types.NewRow(cols, []string{"100", "1", "2", "8.5", "0.9"}),
	}}

	f, err := New(cfg, &stubCatalog{tables: []*types.Table{tbl}}, scenarioXref(), logger.NewNop(),
		WithColumns(ColumnMap{Source: "DR3Name", RA: "RAdeg", Dec: "DEdeg", Gmag: "Gmag", RUWE: "RUWE"}))
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Kept)
}

func TestRun_Timing(t *testing.T) {
	cfg := createTestConfig(t)
	f, err := New(cfg, scenarioCatalog(), scenarioXref(), logger.NewNop())
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := start
	f.now = func() time.Time {
		now := tick
		tick = tick.Add(2 * time.Second)
		return now
	}

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, start, result.StartedAt)
	assert.Equal(t, 2*time.Second, result.Duration)
}

// TestRun_EndToEnd drives the real VizieR and SIMBAD clients against local
// servers.
func TestRun_EndToEnd(t *testing.T) {
	var tsv strings.Builder
	tsv.WriteString("#Table\tI_350_gaiaedr3:\n#Name: I/350/gaiaedr3\n")
	tsv.WriteString("Source\tRA_ICRS\tDE_ICRS\tGmag\tRUWE\n\tdeg\tdeg\tmag\t\n---\t---\t---\t---\t---\n")
	for _, r := range scenarioRows {
		tsv.WriteString(strings.Join(r, "\t") + "\n")
	}

	viz := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("-source") == "I/350/gaiaedr3" {
			fmt.Fprint(w, tsv.String())
			return
		}
		fmt.Fprint(w, "#INFO\tno rows\n")
	}))
	defer viz.Close()

	xref := scenarioXref()
	sim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adql := r.URL.Query().Get("QUERY")
		key := adql[strings.LastIndex(adql, "= '")+3 : len(adql)-1]
		if xref.failing[key] {
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		if strings.HasPrefix(adql, "SELECT id2.id") {
			fmt.Fprintln(w, "id")
			for _, id := range xref.idents[key] {
				fmt.Fprintf(w, "%q\n", id)
			}
			return
		}
		fmt.Fprintln(w, "main_id\tra\tdec")
		if obj, ok := xref.objects[key]; ok {
			fmt.Fprintf(w, "%q\t%v\t%v\n", obj.MainID, obj.RA, obj.Dec)
		}
	}))
	defer sim.Close()

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	rc := remote.NewClient(nil,
		remote.WithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second}),
		remote.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		remote.WithRetryPolicy(remote.RetryPolicy{MaxRetries: 1, InitialBackoff: time.Millisecond}),
	)

	cfg := createTestConfig(t)
	f, err := New(cfg, vizier.New(viz.URL, rc, nil), simbad.New(sim.URL, rc, nil), logger.NewNop())
	require.NoError(t, err)

	result, err := f.Run(context.Background(), ParamsFromConfig(cfg))
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Object_Name RA DEC Mean_Gmag RUWE", lines[0])
	assert.Equal(t, `"* alf Tst" 165.62000100 -77.52000100 6.1000 1.1000`, lines[1])
	assert.Equal(t, `"HD 100" 165.60000100 -77.50000100 8.5000 0.9000`, lines[2])
	assert.NotContains(t, string(data), "WDS")

	assert.Equal(t, 3, result.Excluded)
}
