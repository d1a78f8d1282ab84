// Package analysis orchestrates the constituent source, the price loader and the
// cross, scoring and rebase cores.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"TradeIdeas/internal/collector"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/cross"
	"TradeIdeas/internal/metrics"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/rebase"
	"TradeIdeas/internal/scorer"
	"TradeIdeas/internal/telemetry"
)

// ErrInvalidArgument marks caller errors such as an out-of-range lookback.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFound is returned when a requested change date has no rows.
var ErrNotFound = errors.New("not found")

// Lookback bounds for cross alerts, in calendar days.
const (
	DefaultLookbackDays = 180
	MinLookbackDays     = 90
	MaxLookbackDays     = 365
	// historyPaddingDays covers the long moving average before the lookback starts.
	historyPaddingDays = 300
	rsiPeriod          = 14
)

// Source provides index membership and change history.
type Source interface {
	Name() string
	List() []constituents.Index
	Constituents(ctx context.Context, index string) ([]model.Constituent, error)
	Changes(ctx context.Context) ([]model.IndexChange, error)
}

// Options configures a Service.
type Options struct {
	Cross   cross.Config
	Scoring scorer.Config
	Rebase  rebase.Config
	// MaxCandidates caps how many non-members are scored per run.
	MaxCandidates int
	// UniverseIndex and MemberIndex define the candidate universe as Universe minus Members.
	UniverseIndex string
	MemberIndex   string
	// AllowSampleFallback substitutes tagged sample data when a live source fails.
	AllowSampleFallback bool
}

func DefaultOptions() Options {
	return Options{
		Cross:         cross.DefaultConfig(),
		Scoring:       scorer.DefaultConfig(),
		Rebase:        rebase.DefaultConfig(),
		MaxCandidates: 30,
		UniverseIndex: constituents.Russell1000,
		MemberIndex:   constituents.SP500,
	}
}

// Service runs the analysis flows.
type Service struct {
	src     Source
	col     *collector.Collector
	scorer  *scorer.Scorer
	opts    Options
	metrics *metrics.Registry
	now     func() time.Time
}

// New validates opts and builds a Service. reg may be nil.
func New(src Source, col *collector.Collector, opts Options, reg *metrics.Registry) (*Service, error) {
	if src == nil || col == nil {
		return nil, fmt.Errorf("analysis: source and collector are required")
	}
	if err := opts.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	if opts.Cross.ShortWindow <= 0 || opts.Cross.LongWindow <= opts.Cross.ShortWindow {
		return nil, fmt.Errorf("analysis: cross windows must satisfy 0 < short < long")
	}
	if err := opts.Rebase.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: rebase: %w", err)
	}
	def := DefaultOptions()
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = def.MaxCandidates
	}
	if opts.UniverseIndex == "" {
		opts.UniverseIndex = def.UniverseIndex
	}
	if opts.MemberIndex == "" {
		opts.MemberIndex = def.MemberIndex
	}
	return &Service{
		src:     src,
		col:     col,
		scorer:  scorer.New(opts.Scoring),
		opts:    opts,
		metrics: reg,
		now:     time.Now,
	}, nil
}

// Indices lists the supported indices.
func (s *Service) Indices() []constituents.Index { return s.src.List() }

// Options returns the effective options.
func (s *Service) Options() Options { return s.opts }

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "analysis."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveAnalysis(op, begin, err)
		}
	}
}

func (s *Service) liveDataset() model.Dataset {
	return model.Dataset{Source: s.src.Name() + "+" + s.col.Fetcher.Name(), FetchedAt: s.now().UTC()}
}

func (s *Service) sampleDataset(cause error) model.Dataset {
	return model.Dataset{
		Source:    "sample",
		Synthetic: true,
		Warning:   fmt.Sprintf("%s (%v)", constituents.SampleWarning, cause),
		FetchedAt: s.now().UTC(),
	}
}

// ConstituentsResult is the member list of one index.
type ConstituentsResult struct {
	Index   constituents.Index  `json:"index"`
	Members []model.Constituent `json:"members"`
	Dataset model.Dataset       `json:"dataset"`
}

// Constituents returns the members of an index. Only the Russell 1000 has a sample fallback.
func (s *Service) Constituents(ctx context.Context, index string) (res *ConstituentsResult, err error) {
	ctx, done := s.start(ctx, "constituents", attribute.String("index", index))
	defer func() { done(err) }()

	idx, err := constituents.Lookup(indexMap(s.src.List()), index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	members, err := s.src.Constituents(ctx, idx.Key)
	if err == nil {
		return &ConstituentsResult{Index: idx, Members: members, Dataset: s.liveDataset()}, nil
	}
	if s.opts.AllowSampleFallback && idx.Key == constituents.Russell1000 && errors.Is(err, model.ErrSourceUnavailable) {
		log.Warn().Err(err).Str("index", idx.Key).Msg("using sample universe")
		return &ConstituentsResult{Index: idx, Members: constituents.SampleRussellUniverse(), Dataset: s.sampleDataset(err)}, nil
	}
	return nil, err
}

func indexMap(list []constituents.Index) map[string]constituents.Index {
	m := make(map[string]constituents.Index, len(list))
	for _, idx := range list {
		m[idx.Key] = idx
	}
	return m
}

func symbols(members []model.Constituent) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Symbol)
	}
	return out
}

func names(members []model.Constituent) map[string]string {
	out := make(map[string]string, len(members))
	for _, m := range members {
		out[strings.ToUpper(m.Symbol)] = m.Name
	}
	return out
}
