package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testCoordinate = "11 02 24.8763629208 -77 33 35.667131796"

// useConfig points the CLI at a config file for one test.
func useConfig(t *testing.T, path string) {
	t.Helper()
	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
}

// writeConfig writes body to a temporary starsift.yaml and selects it.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "starsift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	useConfig(t, path)
	return path
}

// captureOutput redirects outputWriter for one test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	setOutputWriter(&buf)
	t.Cleanup(resetOutputWriter)
	return &buf
}

// resetFlags restores every flag of fs to its default and clears Changed.
func resetFlags(t *testing.T, fs *pflag.FlagSet) {
	t.Helper()
	reset := func() {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset()
	t.Cleanup(reset)
}

// testServices starts a VizieR server returning gaiaRows for the primary
// catalog and a SIMBAD server answering from idents and objects.
func testServices(t *testing.T, gaiaRows [][]string, idents map[string][]string, objects map[string][3]string) (vizURL, simURL string) {
	t.Helper()

	var tsv strings.Builder
	tsv.WriteString("#Table\tI_350_gaiaedr3:\n#Name: I/350/gaiaedr3\n")
	tsv.WriteString("Source\tRA_ICRS\tDE_ICRS\tGmag\tRUWE\n\tdeg\tdeg\tmag\t\n---\t---\t---\t---\t---\n")
	for _, r := range gaiaRows {
		tsv.WriteString(strings.Join(r, "\t") + "\n")
	}

	viz := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("-source") == "I/350/gaiaedr3" {
			fmt.Fprint(w, tsv.String())
			return
		}
		fmt.Fprint(w, "#INFO\tno rows\n")
	}))
	t.Cleanup(viz.Close)

	sim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adql := r.URL.Query().Get("QUERY")
		i := strings.LastIndex(adql, "= '")
		if i < 0 {
			fmt.Fprintln(w, "main_id")
			fmt.Fprintln(w, `"ping"`)
			return
		}
		key := adql[i+3 : len(adql)-1]
		if strings.HasPrefix(adql, "SELECT id2.id") {
			fmt.Fprintln(w, "id")
			for _, id := range idents[key] {
				fmt.Fprintf(w, "%q\n", id)
			}
			return
		}
		fmt.Fprintln(w, "main_id\tra\tdec")
		if obj, ok := objects[key]; ok {
			fmt.Fprintf(w, "%q\t%s\t%s\n", obj[0], obj[1], obj[2])
		}
	}))
	t.Cleanup(sim.Close)

	return viz.URL, sim.URL
}

// serviceConfig renders a config that talks to the given endpoints without
// retries or rate limiting.
func serviceConfig(t *testing.T, vizURL, simURL, extra string) string {
	t.Helper()
	dir := t.TempDir()
	return fmt.Sprintf(`query:
  coordinate: "%s"
  radius: 0.5
services:
  vizier_url: %s
  simbad_url: %s
processing:
  concurrency: 2
  requests_per_second: 1000
  burst: 100
  max_retries: 0
  initial_backoff_seconds: 0.001
  timeout_seconds: 5
output:
  path: %s
logging:
  level: error
  output: %s
%s`, testCoordinate, vizURL, simURL,
		filepath.Join(dir, "out.csv"), filepath.Join(dir, "starsift.log"), extra)
}
