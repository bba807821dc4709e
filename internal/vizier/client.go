// Package vizier runs cone searches against the VizieR ASU-TSV service.
package vizier

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/types"
)

const (
	serviceName = "vizier"
	asuPath     = "/viz-bin/asu-tsv"
)

// Client queries VizieR. It holds no per-query state.
type Client struct {
	baseURL string
	remote  *remote.Client
	log     *logger.Logger
}

// New creates a VizieR client for baseURL, e.g. "https://vizier.cds.unistra.fr".
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

// QueryRegion cone-searches each catalog in q and returns one table per
// catalog, in request order. A catalog without matches yields an empty table
// carrying only its name.
func (c *Client) QueryRegion(ctx context.Context, q types.RegionQuery) ([]*types.Table, error) {
	if len(q.Catalogs) == 0 {
		return nil, fmt.Errorf("no catalogs to query")
	}

	tables := make([]*types.Table, 0, len(q.Catalogs))
	for i, catalog := range q.Catalogs {
		log := c.log.WithCatalog(catalog)
		u := c.RegionURL(q, catalog, i == 0)
		log.Debugw("Querying catalog", "url", u)

		body, err := c.remote.Get(ctx, serviceName, "query_region", u)
		if err != nil {
			return nil, err
		}

		parsed, err := ParseTSV(bytes.NewReader(body))
		if err != nil {
			return nil, remote.Wrap(serviceName, "parse", fmt.Errorf("catalog %s: %w", catalog, err))
		}

		table := &types.Table{Name: catalog}
		if len(parsed) > 0 {
			table = parsed[0]
			if table.Name == "" {
				table.Name = catalog
			}
		}
		log.Infow("Catalog queried", "rows", table.Len())
		tables = append(tables, table)
	}

	return tables, nil
}

// RegionURL builds the ASU-TSV request for one catalog. Output columns are
// only restricted for the primary catalog.
func (c *Client) RegionURL(q types.RegionQuery, catalog string, primary bool) string {
	v := url.Values{}
	v.Set("-source", catalog)
	v.Set("-c", q.Center.String())
	v.Set("-c.rd", strconv.FormatFloat(q.RadiusDeg, 'f', -1, 64))
	v.Set("-c.eq", "J2000")
	v.Set("-out.max", rowLimit(q.RowLimit))
	if primary && len(q.Columns) > 0 {
		v.Set("-out", strings.Join(q.Columns, ","))
	}
	return c.baseURL + asuPath + "?" + v.Encode()
}

// Ping fetches a single row of catalog to confirm the service answers.
func (c *Client) Ping(ctx context.Context, catalog string) error {
	v := url.Values{}
	v.Set("-source", catalog)
	v.Set("-out.max", "1")
	_, err := c.remote.Get(ctx, serviceName, "ping", c.baseURL+asuPath+"?"+v.Encode())
	return err
}

func rowLimit(n int) string {
	if n < 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}
