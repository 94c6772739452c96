package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/config"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/search"
	"github.com/coronin/Crisprs/testutil"
)

func openSample(t *testing.T) *crisprs.DB {
	t.Helper()
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "sites.csv",
		"chr1,100,+,ACGTACGTACGTACGTACGT,AGG\n"+
			"chr2,200,-,ACGTACGTACGTACGTACGC,TGG\n"+
			"chr3,300,+,TTTTTTTTTTTTTTTTTTTT,CGG\n")
	out := filepath.Join(dir, "sample.crx")
	_, err := crisprs.Build(context.Background(), index.BuildConfig{
		Inputs: []string{in}, Output: out, Assembly: "GRCh38", Species: "Human", SpeciesID: 1, HasSpeciesID: true,
	})
	require.NoError(t, err)
	db, err := crisprs.Open(context.Background(), out, crisprs.WithSearchOptions(search.WithThreshold(1)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	s := New(openSample(t), Options{Config: cfg, Gatherer: prometheus.NewRegistry()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, gojson.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealthAndIndex(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+api.PathHealth, &health))
	assert.Equal(t, "ok", health["status"])

	var info api.IndexInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+api.PathIndex, &info))
	assert.Equal(t, "GRCh38", info.Assembly)
	assert.Equal(t, uint64(3), info.NumSeqs)
	require.NotNil(t, info.SpeciesID)
	assert.Equal(t, 1, *info.SpeciesID)
	assert.Equal(t, 1, info.Threshold)
}

func TestSites(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	var site api.Site
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/v1/sites/2", &site))
	assert.Equal(t, "chr2", site.Contig)
	assert.Equal(t, "-", site.Strand)

	var e api.ErrorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/v1/sites/9", &e))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/v1/sites/abc", &e))

	var list []api.Site
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/v1/sites?start=1&count=3", &list))
	assert.Len(t, list, 3)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/v1/sites?start=2&count=5", &e))
	assert.Contains(t, e.Error, "out of bounds")
}

func postOffTargets(t *testing.T, url, body string) (*http.Response, []api.Result) {
	t.Helper()
	resp, err := http.Post(url+api.PathOffTargets, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	var out []api.Result
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var r api.Result
		require.NoError(t, gojson.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	require.NoError(t, sc.Err())
	return resp, out
}

func TestOffTargets_List(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	resp, results := postOffTargets(t, ts.URL, `{"ids":[1,7]}`)
	assert.Equal(t, api.ContentTypeNDJSON, resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(api.HeaderBatchID))
	require.Len(t, results, 2)
	assert.Len(t, results[0].Matches, 2)
	assert.Equal(t, []int{1, 1}, results[0].Summary)
	assert.Contains(t, results[1].Error, "unknown query id")
}

func TestOffTargets_Cached(t *testing.T) {
	s := New(openSample(t), Options{Config: config.ServerConfig{CacheBytes: 1 << 20}, Gatherer: prometheus.NewRegistry()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	_, first := postOffTargets(t, ts.URL, `{"ids":[2,7]}`)
	require.Len(t, first, 2)
	hits, misses := s.CacheStats()
	assert.Zero(t, hits)
	assert.Equal(t, int64(2), misses)

	_, second := postOffTargets(t, ts.URL, `{"ids":[3,2,7]}`)
	require.Len(t, second, 3)
	assert.Equal(t, []uint64{3, 2, 7}, []uint64{second[0].QueryID, second[1].QueryID, second[2].QueryID})
	assert.Equal(t, first[0], second[1])
	assert.Contains(t, second[2].Error, "unknown query id")

	hits, _ = s.CacheStats()
	assert.Equal(t, int64(1), hits)
}

func TestOffTargets_Range(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	_, results := postOffTargets(t, ts.URL, `{"start":2,"count":2}`)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(2), results[0].QueryID)
	assert.Equal(t, uint64(3), results[1].QueryID)

	_, results = postOffTargets(t, ts.URL, `{"start":3,"count":4}`)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, "out of bounds")
}

func TestOffTargets_BadRequests(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{MaxQueries: 2})

	for _, body := range []string{`{}`, `not json`, `{"count":2}`, `{"start":1}`, `{"ids":[1,2,3]}`, `{"start":1,"count":3}`} {
		resp, _ := postOffTargets(t, ts.URL, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestOffTargets_RangeTakesPrecedence(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	queryIDs := func(results []api.Result) []uint64 {
		var out []uint64
		for _, r := range results {
			out = append(out, r.QueryID)
		}
		return out
	}

	resp, results := postOffTargets(t, ts.URL, `{"ids":[3],"start":1,"count":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []uint64{1, 2}, queryIDs(results))

	// A window needs both bounds; otherwise the id list is used.
	for _, body := range []string{`{"ids":[3],"count":2}`, `{"ids":[3],"start":1}`} {
		resp, results = postOffTargets(t, ts.URL, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.Equal(t, []uint64{3}, queryIDs(results), body)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{RateLimit: 0.001, RateBurst: 1})

	var info api.IndexInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+api.PathIndex, &info))
	var e api.ErrorResponse
	assert.Equal(t, http.StatusTooManyRequests, getJSON(t, ts.URL+api.PathIndex, &e))

	// Health checks are not limited.
	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+api.PathHealth, &health))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := crisprs.NewPrometheusCollector(reg)
	require.NoError(t, err)
	s := New(openSample(t), Options{Gatherer: reg})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + api.PathMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_Shutdown(t *testing.T) {
	s := New(openSample(t), Options{Config: config.ServerConfig{Addr: "127.0.0.1:0"}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
