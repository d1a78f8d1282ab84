package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TradeIdeas/internal/notifier"
	"TradeIdeas/internal/scheduler"
	"TradeIdeas/internal/server"
)

func newServeCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the scheduled scans and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return serve(ctx, getApp())
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	log.Info().Str("version", version).Msg(appName + " starting")

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.Enabled {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Info().Msg("telegram disabled, alerts are logged only")
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return err
	}
	sched := scheduler.NewScheduler(ctx, a.service, sender, a.metrics, scheduler.Options{
		Index:         cfg.Schedule.Index,
		LookbackDays:  cfg.Schedule.LookbackDays,
		WarmIndices:   cfg.Schedule.WarmIndices,
		TopCandidates: cfg.Schedule.TopCandidates,
		NotifyEmpty:   cfg.Schedule.NotifyEmpty,
		Location:      loc,
	})
	if err := sched.RegisterAll(cfg.Schedule.CrossCron, cfg.Schedule.WarmupCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("RUN_ON_START: running cross scan now")
		go sched.CrossScan()
	}

	if tn != nil && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram command polling started")
	}

	srv := server.New(a.service, a.metrics.Handler(), cfg.Server)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg(appName + " stopped")
	return nil
}
