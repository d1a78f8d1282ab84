package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeIdeas/internal/model"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.RequestsPerSecond = 1000
	opts.Burst = 100
	opts.Backoff = time.Millisecond
	return opts
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tradeideas-test", r.Header.Get("User-Agent"))
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.UserAgent = "tradeideas-test"
	body, err := New(opts).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGet_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(testOptions()).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGet_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var results []string
	opts := testOptions()
	opts.MaxRetries = 0
	opts.BreakerFailures = 2
	opts.Observer = func(_, result string, _ time.Duration) { results = append(results, result) }
	c := New(opts)

	for i := 0; i < 4; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil)
		assert.ErrorIs(t, err, model.ErrSourceUnavailable)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"status_500", "status_500", "breaker_open", "breaker_open"}, results)
}
