// Package simbad resolves identifiers and positions through the SIMBAD TAP
// service.
package simbad

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/sqlutil"
	"github.com/dbsmedya/starsift/internal/types"
)

const (
	serviceName = "simbad"
	tapPath     = "/simbad/sim-tap/sync"
)

// ErrObjectNotFound is returned by QueryObject when SIMBAD knows no object
// under the given identifier.
var ErrObjectNotFound = errors.New("object not found")

// Client queries SIMBAD. It is safe for concurrent use.
type Client struct {
	baseURL string
	remote  *remote.Client
	log     *logger.Logger
}

// New creates a SIMBAD client for baseURL, e.g. "https://simbad.cds.unistra.fr".
func New(baseURL string, rc *remote.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		remote:  rc,
		log:     log,
	}
}

// IdentifiersQuery returns the ADQL listing every identifier of the object
// known as key.
func IdentifiersQuery(key string) string {
	return "SELECT id2.id FROM ident AS id1 JOIN ident AS id2 USING(oidref) WHERE id1.id = " +
		sqlutil.QuoteLiteral(key)
}

// ObjectQuery returns the ADQL selecting main identifier and position of key.
func ObjectQuery(key string) string {
	return "SELECT basic.main_id, basic.ra, basic.dec FROM basic JOIN ident ON ident.oidref = basic.oid WHERE ident.id = " +
		sqlutil.QuoteLiteral(key)
}

// QueryURL builds the synchronous TAP request for an ADQL query.
func (c *Client) QueryURL(adql string) string {
	v := url.Values{}
	v.Set("REQUEST", "doQuery")
	v.Set("LANG", "ADQL")
	v.Set("FORMAT", "tsv")
	v.Set("QUERY", adql)
	return c.baseURL + tapPath + "?" + v.Encode()
}

// QueryIdentifiers returns all identifiers of key. An unknown key yields an
// empty slice and no error.
func (c *Client) QueryIdentifiers(ctx context.Context, key string) ([]string, error) {
	rows, err := c.query(ctx, "query_identifiers", IdentifiersQuery(key))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 && r[0] != "" {
			ids = append(ids, r[0])
		}
	}
	return ids, nil
}

// QueryObject returns the main identifier and ICRS position of key.
func (c *Client) QueryObject(ctx context.Context, key string) (*types.ObjectInfo, error) {
	const op = "query_object"

	rows, err := c.query(ctx, op, ObjectQuery(key))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &remote.CollaboratorError{Service: serviceName, Op: op, Err: fmt.Errorf("%q: %w", key, ErrObjectNotFound)}
	}

	r := rows[0]
	if len(r) < 3 {
		return nil, &remote.CollaboratorError{Service: serviceName, Op: op, Err: fmt.Errorf("expected 3 columns, got %d", len(r))}
	}
	ra, err := strconv.ParseFloat(r[1], 64)
	if err != nil {
		return nil, &remote.CollaboratorError{Service: serviceName, Op: op, Err: fmt.Errorf("ra %q: %w", r[1], err)}
	}
	dec, err := strconv.ParseFloat(r[2], 64)
	if err != nil {
		return nil, &remote.CollaboratorError{Service: serviceName, Op: op, Err: fmt.Errorf("dec %q: %w", r[2], err)}
	}

	return &types.ObjectInfo{MainID: r[0], RA: ra, Dec: dec}, nil
}

// Ping runs a trivial query to confirm the service answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.query(ctx, "ping", "SELECT TOP 1 main_id FROM basic")
	return err
}

func (c *Client) query(ctx context.Context, op, adql string) ([][]string, error) {
	c.log.Debugw("Running ADQL", "op", op, "query", adql)

	body, err := c.remote.Get(ctx, serviceName, op, c.QueryURL(adql))
	if err != nil {
		return nil, err
	}
	return parseTSV(body), nil
}

// parseTSV splits a TAP TSV result into rows, skipping the header line and
// removing the double quotes TAP puts around string values.
func parseTSV(body []byte) [][]string {
	var rows [][]string

	scanner := bufio.NewScanner(bytes.NewReader(body))
	header := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if header {
			header = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := strings.Split(line, "\t")
		for i, cell := range cells {
			cells[i] = unquote(strings.TrimSpace(cell))
		}
		rows = append(rows, cells)
	}
	return rows
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
