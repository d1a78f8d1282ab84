package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/metrics"
	"TradeIdeas/internal/model"
)

type stubAnalyzer struct {
	crosses  *analysis.CrossReport
	err      error
	index    string
	lookback int
	warmed   []string
	changes  int
}

func (s *stubAnalyzer) Constituents(_ context.Context, index string) (*analysis.ConstituentsResult, error) {
	s.warmed = append(s.warmed, index)
	return &analysis.ConstituentsResult{}, nil
}

func (s *stubAnalyzer) CrossAlerts(_ context.Context, index string, lookback int, _ time.Time) (*analysis.CrossReport, error) {
	s.index, s.lookback = index, lookback
	return s.crosses, s.err
}

func (s *stubAnalyzer) Candidates(context.Context, int, time.Time) (*analysis.CandidateReport, error) {
	return &analysis.CandidateReport{Candidates: []model.CandidateRecord{{Ticker: "SMCI", Score: 80}, {Ticker: "VICI", Score: 70}}}, nil
}

func (s *stubAnalyzer) Changes(context.Context) (*analysis.ChangesReport, error) {
	s.changes++
	return &analysis.ChangesReport{Changes: []model.IndexChange{{Symbol: "TPG", Type: model.Added}}}, nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) SendWithRetry(_ context.Context, text string, _ int) error {
	r.sent = append(r.sent, text)
	return r.err
}

func newTestScheduler(svc *stubAnalyzer, sender Sender, reg *metrics.Registry) *Scheduler {
	return NewScheduler(context.Background(), svc, sender, reg, Options{
		Index: "sp500", LookbackDays: 120, WarmIndices: []string{"sp500", "russell1000"},
	})
}

func TestScheduler_CrossScanSendsAlerts(t *testing.T) {
	svc := &stubAnalyzer{crosses: &analysis.CrossReport{Index: "sp500", Alerts: []analysis.CrossAlert{
		{CrossEvent: model.CrossEvent{Ticker: "GOLD", Direction: model.Golden}},
	}}}
	sender := &recordingSender{}
	reg := metrics.New()

	newTestScheduler(svc, sender, reg).CrossScan()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "GOLD")
	assert.Equal(t, 120, svc.lookback)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Notifications.WithLabelValues("ok")))
}

func TestScheduler_CrossScanQuietWhenEmpty(t *testing.T) {
	svc := &stubAnalyzer{crosses: &analysis.CrossReport{Index: "sp500"}}
	sender := &recordingSender{}
	newTestScheduler(svc, sender, nil).CrossScan()
	assert.Empty(t, sender.sent)

	s := newTestScheduler(svc, sender, nil)
	s.Opts.NotifyEmpty = true
	s.CrossScan()
	assert.Len(t, sender.sent, 1)
}

func TestScheduler_CrossScanFailure(t *testing.T) {
	svc := &stubAnalyzer{err: errors.New("wiki down")}
	sender := &recordingSender{err: errors.New("telegram down")}
	reg := metrics.New()

	newTestScheduler(svc, sender, reg).CrossScan()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "wiki down")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Notifications.WithLabelValues("error")))
}

func TestScheduler_Warmup(t *testing.T) {
	svc := &stubAnalyzer{}
	newTestScheduler(svc, nil, nil).Warmup()
	assert.Equal(t, []string{"sp500", "russell1000"}, svc.warmed)
	assert.Equal(t, 1, svc.changes)
}

func TestScheduler_RegisterAll(t *testing.T) {
	s := newTestScheduler(&stubAnalyzer{}, nil, nil)
	require.NoError(t, s.RegisterAll("0 30 17 * * 1-5", "0 0 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	assert.Error(t, newTestScheduler(&stubAnalyzer{}, nil, nil).RegisterAll("not a cron", ""))
}

func TestScheduler_HandleCommand(t *testing.T) {
	svc := &stubAnalyzer{crosses: &analysis.CrossReport{}}
	s := newTestScheduler(svc, nil, nil)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/crosses@TradeIdeasBot ftse100 200")
	assert.Contains(t, reply, "MA crosses")
	assert.Equal(t, "ftse100", svc.index)
	assert.Equal(t, 200, svc.lookback)

	assert.Equal(t, "lookback must be a number of days", s.HandleCommand(ctx, "/crosses sp500 soon"))

	reply = s.HandleCommand(ctx, "/candidates 1")
	assert.Contains(t, reply, "SMCI")
	assert.NotContains(t, reply, "VICI")

	assert.Contains(t, s.HandleCommand(ctx, "/changes"), "TPG")
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")
	assert.Contains(t, s.HandleCommand(ctx, ""), "Available commands")
}
