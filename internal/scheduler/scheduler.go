package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/metrics"
	"TradeIdeas/internal/notifier"
)

// Analyzer is the part of analysis.Service the jobs run.
type Analyzer interface {
	Constituents(ctx context.Context, index string) (*analysis.ConstituentsResult, error)
	CrossAlerts(ctx context.Context, index string, lookbackDays int, asOf time.Time) (*analysis.CrossReport, error)
	Candidates(ctx context.Context, limit int, asOf time.Time) (*analysis.CandidateReport, error)
	Changes(ctx context.Context) (*analysis.ChangesReport, error)
}

// Sender delivers formatted alerts.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options tunes the scheduled jobs.
type Options struct {
	Index         string
	LookbackDays  int
	WarmIndices   []string
	TopCandidates int
	// NotifyEmpty sends a message even when a scan finds no crosses.
	NotifyEmpty bool
	Location    *time.Location
}

const sendRetries = 3

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Analysis Analyzer
	Notifier Sender
	Metrics  *metrics.Registry
	Ctx      context.Context
	Opts     Options
}

// NewScheduler creates a new Scheduler. notifier and reg may be nil.
func NewScheduler(ctx context.Context, svc Analyzer, tn Sender, reg *metrics.Registry, opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if opts.TopCandidates <= 0 {
		opts.TopCandidates = 10
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Analysis: svc,
		Notifier: tn,
		Metrics:  reg,
		Ctx:      ctx,
		Opts:     opts,
	}
}

// RegisterAll registers the cross scan and the cache warm-up.
func (s *Scheduler) RegisterAll(crossCron, warmupCron string) error {
	if _, err := s.Cron.AddFunc(crossCron, s.CrossScan); err != nil {
		return fmt.Errorf("register cross scan: %w", err)
	}
	if warmupCron != "" {
		if _, err := s.Cron.AddFunc(warmupCron, s.Warmup); err != nil {
			return fmt.Errorf("register cache warm-up: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.Cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// CrossScan runs the cross detector over the configured index and alerts on results.
func (s *Scheduler) CrossScan() {
	log.Info().Str("index", s.Opts.Index).Msg("running cross scan")
	rep, err := s.Analysis.CrossAlerts(s.Ctx, s.Opts.Index, s.Opts.LookbackDays, time.Time{})
	if err != nil {
		log.Error().Err(err).Msg("cross scan failed")
		s.trySend(fmt.Sprintf("❌ Cross scan failed: %v", err))
		return
	}
	if len(rep.Alerts) == 0 && !s.Opts.NotifyEmpty {
		log.Info().Msg("no crosses, nothing to send")
		return
	}
	s.trySend(notifier.FormatCrossReport(rep))
}

// Warmup loads the constituent lists and the change history so the cache is hot.
func (s *Scheduler) Warmup() {
	start := time.Now()
	for _, idx := range s.Opts.WarmIndices {
		if _, err := s.Analysis.Constituents(s.Ctx, idx); err != nil {
			log.Warn().Err(err).Str("index", idx).Msg("warm-up failed")
		}
	}
	if _, err := s.Analysis.Changes(s.Ctx); err != nil {
		log.Warn().Err(err).Msg("warm-up of change history failed")
	}
	log.Info().Dur("took", time.Since(start)).Msg("cache warm-up done")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// commands in groups arrive as /cmd@botname
	name := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]

	switch name {
	case "/crosses":
		index, lookback := s.Opts.Index, s.Opts.LookbackDays
		if len(args) > 0 {
			index = args[0]
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "lookback must be a number of days"
			}
			lookback = n
		}
		rep, err := s.Analysis.CrossAlerts(ctx, index, lookback, time.Time{})
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatCrossReport(rep)
	case "/candidates":
		n := s.Opts.TopCandidates
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		rep, err := s.Analysis.Candidates(ctx, 0, time.Time{})
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatCandidates(rep, n)
	case "/changes":
		n := 10
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		rep, err := s.Analysis.Changes(ctx)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatChanges(rep, n)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Debug().Msg("notifier disabled, alert dropped")
		return
	}
	result := "ok"
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		result = "error"
		log.Error().Err(err).Msg("send notification")
	}
	if s.Metrics != nil {
		s.Metrics.Notifications.WithLabelValues(result).Inc()
	}
}
