// Package safetydata fetches the ground subsidence datasets from the
// national disaster safety data portal.
package safetydata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

// Endpoint IDs per dataset.
var endpoints = map[domain.Dataset]string{
	domain.DatasetRiskAssessment: "DSSP-IF-00752",
	domain.DatasetAccident:       "DSSP-IF-00754",
	domain.DatasetIncidentDetail: "DSSP-IF-20608",
	domain.DatasetFacilitySafety: "DSSP-IF-00762",
}

// Endpoint returns the portal endpoint ID for a dataset.
func Endpoint(ds domain.Dataset) (string, bool) {
	id, ok := endpoints[ds]
	return id, ok
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
	MaxPages int
	// ServiceKeys holds one credential per dataset.
	ServiceKeys map[domain.Dataset]string
}

// Client fetches raw dataset payloads. It does not interpret records; that
// is left to domain.Normalize.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	maxPages   int
	keys       map[domain.Dataset]string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a portal client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = 1
	}
	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		pageSize:   pageSize,
		maxPages:   maxPages,
		keys:       opts.ServiceKeys,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch requests up to MaxPages pages of a dataset and returns each page's
// raw payload in page order. Paging stops early once the portal's
// totalCount has been covered or a page comes back empty.
func (c *Client) Fetch(ctx context.Context, ds domain.Dataset) ([][]byte, error) {
	endpoint, ok := endpoints[ds]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", ds)
	}

	var pages [][]byte
	for pageNo := 1; pageNo <= c.maxPages; pageNo++ {
		payload, err := c.fetchPage(ctx, ds, endpoint, pageNo)
		if err != nil {
			return pages, fmt.Errorf("fetch %s page %d: %w", ds, pageNo, err)
		}
		pages = append(pages, payload)

		total, rows, ok := pageInfo(payload)
		if !ok || rows == 0 || pageNo*c.pageSize >= total {
			break
		}
	}
	c.logger.Debug("dataset fetched", "dataset", ds, "pages", len(pages))
	return pages, nil
}

func (c *Client) fetchPage(ctx context.Context, ds domain.Dataset, endpoint string, pageNo int) ([]byte, error) {
	params := url.Values{
		"serviceKey": {c.keys[ds]},
		"pageNo":     {strconv.Itoa(pageNo)},
		"numOfRows":  {strconv.Itoa(c.pageSize)},
		"returnType": {"json"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(string(ds)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal API error: status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// pageInfo reads totalCount and the number of rows in a page payload.
func pageInfo(payload []byte) (total, rows int, ok bool) {
	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return 0, 0, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(string(env.TotalCount)))
	if err != nil {
		return 0, 0, false
	}
	var items []json.RawMessage
	body := strings.TrimSpace(string(env.Body))
	switch {
	case strings.HasPrefix(body, "["):
		if err := json.Unmarshal(env.Body, &items); err != nil {
			return total, 0, true
		}
		rows = len(items)
	case strings.HasPrefix(body, "{"):
		rows = 1
	}
	return total, rows, true
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
