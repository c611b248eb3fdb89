package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

const defaultBaseURL = "https://dapi.kakao.com/v2/local/search/address.json"

// Client implements domain.Geocoder using the Kakao Local address search API.
type Client struct {
	key        string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Kakao address search client. requestsPerSecond caps
// the outbound request rate across all concurrent lookups.
func NewClient(key string, timeout time.Duration, requestsPerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		key: key,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a free-text Korean address to coordinates. An address
// with no match returns a zero result and a nil error.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"query": {address},
		"size":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("address search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.GeocodingResult{}, fmt.Errorf("kakao API error: status %d: %s", resp.StatusCode, body)
	}

	var searchResp response
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(searchResp.Documents) == 0 {
		c.logger.Debug("address search returned no documents", "address", address)
		return domain.GeocodingResult{}, nil
	}

	d := searchResp.Documents[0]
	// Kakao returns x (longitude) and y (latitude) as strings.
	lon, errX := strconv.ParseFloat(d.X, 64)
	lat, errY := strconv.ParseFloat(d.Y, 64)
	if errX != nil || errY != nil {
		return domain.GeocodingResult{}, fmt.Errorf("invalid coordinates x=%q y=%q", d.X, d.Y)
	}
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		FormattedAddress: d.AddressName,
	}, nil
}

// Kakao API response types.

type response struct {
	Meta      meta       `json:"meta"`
	Documents []document `json:"documents"`
}

type meta struct {
	TotalCount int `json:"total_count"`
}

type document struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}
