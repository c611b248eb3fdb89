package safetydata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
)

func testClient(baseURL string, pageSize, maxPages int) *Client {
	return NewClient(Options{
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
		PageSize: pageSize,
		MaxPages: maxPages,
		ServiceKeys: map[domain.Dataset]string{
			domain.DatasetAccident:       "accident-key",
			domain.DatasetFacilitySafety: "facility-key",
		},
	}, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Fetch_QueryParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DSSP-IF-00754", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "accident-key", q.Get("serviceKey"))
		assert.Equal(t, "1", q.Get("pageNo"))
		assert.Equal(t, "50", q.Get("numOfRows"))
		assert.Equal(t, "json", q.Get("returnType"))
		_, _ = w.Write([]byte(`{"totalCount":1,"body":[{"ACDNT_NO":"1"}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/", 50, 3)
	pages, err := c.Fetch(context.Background(), domain.DatasetAccident)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	records, err := domain.Normalize[domain.AccidentRecord](pages[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.Text("1"), records[0].ID)
}

func TestClient_Fetch_PagesUntilTotalCovered(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("pageNo"))
		fmt.Fprintf(w, `{"totalCount":"5","pageNo":%d,"body":[{"FCLTY_NO":"%d-a"},{"FCLTY_NO":"%d-b"}]}`, page, page, page)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2, 10)
	pages, err := c.Fetch(context.Background(), domain.DatasetFacilitySafety)
	require.NoError(t, err)
	assert.Len(t, pages, 3, "2+2+1 rows cover a total of 5")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_RespectsMaxPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"totalCount":100,"body":[{},{}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2, 2)
	pages, err := c.Fetch(context.Background(), domain.DatasetAccident)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestClient_Fetch_StopsOnEmptyOrUnreadablePage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null body", `{"totalCount":100,"body":null}`},
		{"missing total", `{"body":[{}]}`},
		{"not json", `<html>maintenance</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := testClient(srv.URL, 1, 5)
			pages, err := c.Fetch(context.Background(), domain.DatasetAccident)
			require.NoError(t, err)
			assert.Len(t, pages, 1)
		})
	}
}

func TestClient_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 10, 1)
	pages, err := c.Fetch(context.Background(), domain.DatasetAccident)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, pages)
}

func TestClient_Fetch_UnknownDataset(t *testing.T) {
	c := testClient("http://127.0.0.1:0", 10, 1)
	_, err := c.Fetch(context.Background(), domain.Dataset("weather"))
	require.Error(t, err)
}

func TestEndpoint(t *testing.T) {
	for _, ds := range domain.Datasets {
		id, ok := Endpoint(ds)
		assert.True(t, ok, "dataset %s", ds)
		assert.NotEmpty(t, id)
	}
	id, _ := Endpoint(domain.DatasetIncidentDetail)
	assert.Equal(t, "DSSP-IF-20608", id)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab...", truncate([]byte("abcdef"), 2))
}
