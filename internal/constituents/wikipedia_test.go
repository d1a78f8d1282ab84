package constituents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeIdeas/internal/cache"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/transport"
)

func testSource(t *testing.T, hits *int32) *WikipediaSource {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/sp500":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(sp500HTML))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	opts.RequestsPerSecond = 1000
	src := NewWikipediaSource(transport.New(opts), cache.New(cache.NewMemoryStore(), time.Hour, nil))
	idx := src.Indices[SP500]
	idx.URL = srv.URL + "/sp500"
	src.Indices[SP500] = idx
	idx = src.Indices[Nasdaq100]
	idx.URL = srv.URL + "/missing"
	src.Indices[Nasdaq100] = idx
	src.ChangesURL = srv.URL + "/sp500"
	return src
}

func TestWikipediaSource_ConstituentsCached(t *testing.T) {
	var hits int32
	src := testSource(t, &hits)

	members, err := src.Constituents(context.Background(), "S&P 500")
	require.NoError(t, err)
	assert.Len(t, members, 3)

	again, err := src.Constituents(context.Background(), "sp500")
	require.NoError(t, err)
	assert.Equal(t, members, again)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestWikipediaSource_Changes(t *testing.T) {
	var hits int32
	changes, err := testSource(t, &hits).Changes(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 8)
	assert.Equal(t, "TPG", changes[0].Symbol)
}

func TestWikipediaSource_Errors(t *testing.T) {
	var hits int32
	src := testSource(t, &hits)

	_, err := src.Constituents(context.Background(), "nasdaq100")
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)

	_, err = src.Constituents(context.Background(), "nikkei")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrSourceUnavailable)
}

func TestSamples(t *testing.T) {
	changes := SampleChanges()
	require.Len(t, changes, 4)
	assert.Equal(t, "2024-12-16", changes[0].Date.Format(model.DateLayout))
	assert.Len(t, SampleRussellUniverse(), 3)
}
