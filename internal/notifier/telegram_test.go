package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	mu       sync.Mutex
	sent     []string
	failures int
	updates  string
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
			if f.failures > 0 {
				f.failures--
				http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
				return
			}
			var payload map[string]any
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload)) {
				return
			}
			assert.Equal(t, "HTML", payload["parse_mode"])
			f.sent = append(f.sent, payload["text"].(string))
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(f.updates))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func (f *fakeTelegram) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testNotifier(url string) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.BaseURL = url
	tn.Backoff = time.Millisecond
	tn.PollTimeout = time.Second
	return tn
}

func TestTelegram_SendWithRetry(t *testing.T) {
	fake := &fakeTelegram{failures: 2}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	tn := testNotifier(srv.URL)
	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 3))
	assert.Equal(t, []string{"hello"}, fake.messages())

	fake.failures = 5
	err := tn.SendWithRetry(context.Background(), "again", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestTelegram_Enabled(t *testing.T) {
	assert.True(t, NewTelegramNotifier("a", "b", "").Enabled())
	assert.False(t, NewTelegramNotifier("", "b", "").Enabled())
	var nilNotifier *TelegramNotifier
	assert.False(t, nilNotifier.Enabled())
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	parts := SplitMessage("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	parts = SplitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, parts)
}

func TestTelegram_Polling(t *testing.T) {
	fake := &fakeTelegram{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /changes ","chat":{"id":42}}},
		{"update_id":8,"message":{"text":"/crosses","chat":{"id":99}}},
		{"update_id":9}
	]}`}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		testNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			mu.Lock()
			got = append(got, cmd)
			mu.Unlock()
			return "reply to " + cmd
		})
	}()

	require.Eventually(t, func() bool { return len(fake.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/changes"}, got)
	assert.Equal(t, []string{"reply to /changes"}, fake.messages())
}
