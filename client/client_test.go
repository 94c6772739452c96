package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/config"
	"github.com/coronin/Crisprs/index"
	"github.com/coronin/Crisprs/search"
	"github.com/coronin/Crisprs/server"
	"github.com/coronin/Crisprs/testutil"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "sites.csv",
		"chr1,100,+,ACGTACGTACGTACGTACGT,AGG\n"+
			"chr2,200,-,ACGTACGTACGTACGTACGC,TGG\n")
	out := filepath.Join(dir, "pair.crx")
	_, err := crisprs.Build(context.Background(), index.BuildConfig{Inputs: []string{in}, Output: out})
	require.NoError(t, err)
	db, err := crisprs.Open(context.Background(), out, crisprs.WithSearchOptions(search.WithThreshold(1)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := server.New(db, server.Options{Config: config.ServerConfig{MaxQueries: 100}, Gatherer: prometheus.NewRegistry()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, WithTimeout(10*time.Second))
}

func TestClient_Metadata(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	info, err := c.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.NumSeqs)
	assert.Nil(t, info.SpeciesID)

	site, err := c.Site(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGTACGTACGTACGC", site.Seq)

	_, err = c.Site(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	sites, err := c.Sites(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, sites, 2)

	_, err = c.Sites(ctx, 2, 2)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestClient_FindOffTargets(t *testing.T) {
	c := newClient(t)

	var got []api.Result
	for res, err := range c.FindOffTargets(context.Background(), api.OffTargetRequest{IDs: []uint64{2, 9}}) {
		require.NoError(t, err)
		got = append(got, res)
	}
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].QueryID)
	require.Len(t, got[0].Matches, 2)
	assert.Equal(t, 1, got[0].Matches[0].Distance)
	assert.NotEmpty(t, got[1].Error)

	n := 0
	for res, err := range c.FindOffTargets(context.Background(), api.OffTargetRequest{Start: 1, Count: 2}) {
		require.NoError(t, err)
		assert.Equal(t, uint64(1+n), res.QueryID)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestClient_FindOffTargetsRejected(t *testing.T) {
	c := newClient(t)

	var last error
	for _, err := range c.FindOffTargets(context.Background(), api.OffTargetRequest{}) {
		last = err
	}
	var apiErr *APIError
	require.ErrorAs(t, last, &apiErr)
	assert.Contains(t, apiErr.Message, "no query ids")
}

func TestClient_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", WithTimeout(time.Second))
	assert.Error(t, c.Health(context.Background()))
}
