package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/cache"
	"TradeIdeas/internal/collector"
	"TradeIdeas/internal/config"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/metrics"
	"TradeIdeas/internal/transport"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	metrics *metrics.Registry
	cache   *cache.Cache
	service *analysis.Service
}

func newApp(cfg *config.Config) (*app, error) {
	reg := metrics.New()

	client := transport.New(transport.Options{
		Timeout:           cfg.HTTP.Timeout,
		ProxyURL:          cfg.Proxy,
		UserAgent:         cfg.HTTP.UserAgent,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Burst:             cfg.HTTP.Burst,
		MaxRetries:        cfg.HTTP.MaxRetries,
		Backoff:           cfg.HTTP.Backoff,
		BreakerFailures:   cfg.HTTP.BreakerFailures,
		BreakerCooldown:   cfg.HTTP.BreakerCooldown,
		Observer:          reg.ObserveSource,
	})

	c, err := openCache(cfg, reg)
	if err != nil {
		return nil, err
	}

	src := constituents.NewWikipediaSource(client, c)
	col := collector.NewCollector(collector.NewYahooFetcher(client, cfg.HTTP.YahooBaseURL), c)

	svc, err := analysis.New(src, col, analysis.Options{
		Cross:               cfg.Cross,
		Scoring:             cfg.Scoring,
		Rebase:              cfg.Performance,
		MaxCandidates:       cfg.Analysis.MaxCandidates,
		UniverseIndex:       cfg.Analysis.UniverseIndex,
		MemberIndex:         cfg.Analysis.MemberIndex,
		AllowSampleFallback: cfg.Analysis.SampleFallback,
	}, reg)
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, err
	}
	return &app{cfg: cfg, metrics: reg, cache: c, service: svc}, nil
}

func openCache(cfg *config.Config, reg *metrics.Registry) (*cache.Cache, error) {
	backend := strings.ToLower(cfg.Cache.Backend)
	if backend == "none" {
		log.Info().Msg("adapter cache disabled")
		return nil, nil
	}
	store, err := cache.Open(cache.Options{
		Backend:    backend,
		SQLitePath: cfg.Cache.SQLitePath,
		RedisAddr:  cfg.Cache.RedisAddr,
		RedisDB:    cfg.Cache.RedisDB,
		RedisPass:  cfg.Cache.RedisPass,
		Prefix:     cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, err
	}
	if sq, ok := store.(*cache.SQLiteStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := sq.Purge(ctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("purge expired cache entries")
		} else if n > 0 {
			log.Info().Int64("entries", n).Msg("purged expired cache entries")
		}
	}
	log.Info().Str("backend", store.Name()).Dur("ttl", cfg.Cache.TTL).Msg("adapter cache ready")
	return cache.New(store, cfg.Cache.TTL, reg), nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("close cache")
		}
	}
}
