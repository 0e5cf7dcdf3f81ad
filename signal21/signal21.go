// Package signal21 is a thin client for the Signal21 market data API.
package signal21

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stx-labs/pox-data-api/configs"
	"github.com/stx-labs/pox-data-api/httpcache"
	"github.com/stx-labs/pox-data-api/httpclient"
)

const (
	pricePath = "/v1/price"
	sqlPath   = "/v1/sql-v2"
)

type Client struct {
	base   string
	client *httpclient.Client
}

func NewClient(cfg *configs.Config, cache *httpcache.Cache) *Client {
	policy := httpclient.DefaultRetryPolicy()
	policy.MinBackoff = cfg.RetryMinBackoff
	policy.MaxBackoff = cfg.RetryMaxBackoff
	policy.MaxAttempts = cfg.RetryMaxAttempts

	return &Client{
		base: cfg.Signal21APIHost,
		client: httpclient.New(
			httpclient.WithHeaders(map[string]string{"User-Agent": "pox-data-api/1.0"}),
			httpclient.WithRetryPolicy(policy),
			httpclient.WithCache(cache),
		),
	}
}

func urlValues(m map[string]string) url.Values {
	v := url.Values{}
	for key, value := range m {
		v.Set(key, value)
	}
	return v
}

// PricePoint is one observation in a price series. Timestamps arrive as
// RFC 3339 strings.
type PricePoint struct {
	Ts    time.Time `json:"ts"`
	Price float64   `json:"price"`
}

// GetPriceSeries fetches the price series of one symbol between two dates,
// inclusive. Date boundaries are sent at calendar day granularity.
func (c *Client) GetPriceSeries(ctx context.Context, symbol string, from, to time.Time, forceRefresh bool) ([]PricePoint, error) {
	url := c.base + pricePath
	payload, err := c.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    url,
		Params: urlValues(map[string]string{
			"symbol": symbol,
			"from":   from.UTC().Format("2006-01-02"),
			"to":     to.UTC().Format("2006-01-02"),
		}),
		CachePrefix:  "signal21_price",
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		return nil, err
	}

	var points []PricePoint
	if err := json.Unmarshal(payload, &points); err != nil {
		return nil, &httpclient.MalformedResponseError{URL: url}
	}

	return points, nil
}

type sqlRequest struct {
	Query  string `json:"query"`
	Offset int64  `json:"offset"`
}

type sqlPage struct {
	Columns map[string][]json.RawMessage `json:"columns"`
	Data    map[string][]json.RawMessage `json:"data"`
	Next    *int64                       `json:"next"`
}

// RunSQL executes a SQL query against the analytics endpoint, following the
// offset cursor until the result set is exhausted. Columnar pages are
// flattened into one record per row.
func (c *Client) RunSQL(ctx context.Context, query string, forceRefresh bool) ([]map[string]json.RawMessage, error) {
	url := c.base + sqlPath

	var records []map[string]json.RawMessage
	offset := int64(0)
	for {
		payload, err := c.client.Do(ctx, httpclient.Request{
			Method:       http.MethodPost,
			URL:          url,
			Body:         sqlRequest{Query: query, Offset: offset},
			CachePrefix:  "signal21_sql",
			ForceRefresh: forceRefresh,
		})
		if err != nil {
			return nil, err
		}

		var page sqlPage
		if err := json.Unmarshal(payload, &page); err != nil {
			return nil, &httpclient.MalformedResponseError{URL: url}
		}

		columnar := page.Columns
		if len(columnar) == 0 {
			columnar = page.Data
		}
		rows, err := columnarToRecords(columnar)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		records = append(records, rows...)

		if page.Next == nil {
			break
		}
		offset = *page.Next
	}

	return records, nil
}

func columnarToRecords(columns map[string][]json.RawMessage) ([]map[string]json.RawMessage, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	length := -1
	for col, cells := range columns {
		if length == -1 {
			length = len(cells)
		} else if len(cells) != length {
			return nil, fmt.Errorf("ragged column %q: %d cells, expected %d", col, len(cells), length)
		}
	}

	records := make([]map[string]json.RawMessage, length)
	for i := range records {
		record := make(map[string]json.RawMessage, len(columns))
		for col, cells := range columns {
			record[col] = cells[i]
		}
		records[i] = record
	}
	return records, nil
}
