//go:build kakao

package kakao

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

// These tests hit the real Kakao Local API and require a valid KAKAO_REST_KEY env var.
// Run with: go test -tags=kakao ./internal/adapter/kakao/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("KAKAO_REST_KEY")
	if key == "" {
		t.Fatal("KAKAO_REST_KEY must be set to run smoke tests")
	}
	return NewClient(key, 10*time.Second, 5, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_Geocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.Geocode(context.Background(), "서울특별시 중구 세종대로 110")
	require.NoError(t, err)

	assert.InDelta(t, 37.566, result.Lat, 0.05, "lat should be near Seoul City Hall")
	assert.InDelta(t, 126.978, result.Lon, 0.05, "lon should be near Seoul City Hall")
	assert.NotEmpty(t, result.FormattedAddress)
}

func TestSmoke_Geocode_NoMatch(t *testing.T) {
	c := smokeClient(t)

	result, err := c.Geocode(context.Background(), "XYZNONEXISTENT99")
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.Geocode(context.Background(), "부산광역시 해운대구")
	require.NoError(t, err)

	r2, err := cached.Geocode(context.Background(), "부산광역시 해운대구")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
