package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"TradeIdeas/internal/config"
	"TradeIdeas/internal/logging"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/telemetry"
)

const (
	appName = "TradeIdeas"
	version = "v0.4.0"
)

type rootFlags struct {
	configPath string
	jsonOut    bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var a *app

	rootCmd := &cobra.Command{
		Use:     "tradeideas",
		Short:   "Index changes, moving-average crosses and S&P 500 promotion candidates",
		Version: version,
		Long: appName + ` scrapes index constituents and change history from Wikipedia, loads prices
and fundamentals from Yahoo Finance, and reports golden/death crosses, likely S&P 500
additions and the performance of past index changes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
				return err
			}
			cfg.Tracing.Version = version
			if err := telemetry.Init(cfg.Tracing); err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			a, err = newApp(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a != nil {
				a.Close()
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return telemetry.Shutdown(ctx)
		},
	}

	configPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", configPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log level (debug|info|warn|error)")

	getApp := func() *app { return a }
	rootCmd.AddCommand(
		newIndicesCmd(flags, getApp),
		newConstituentsCmd(flags, getApp),
		newCrossesCmd(flags, getApp),
		newCandidatesCmd(flags, getApp),
		newChangesCmd(flags, getApp),
		newPerformanceCmd(flags, getApp),
		newRebaseCmd(flags, getApp),
		newServeCmd(getApp),
	)
	return rootCmd
}

// commandContext cancels on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return d, nil
}

func newIndicesCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indices",
		Short: "List supported indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := getApp().service.Indices()
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printIndices(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func newConstituentsCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "constituents <index>",
		Short: "List the current members of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			res, err := getApp().service.Constituents(ctx, args[0])
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printConstituents(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newCrossesCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	var (
		index    string
		lookback int
		asOf     string
	)
	cmd := &cobra.Command{
		Use:   "crosses",
		Short: "Scan an index for golden and death crosses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, err := parseDate(asOf)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			rep, err := getApp().service.CrossAlerts(ctx, index, lookback, date)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			printCrosses(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&index, "index", "sp500", "Index to scan")
	cmd.Flags().IntVar(&lookback, "lookback", 180, "Report crosses from the last N days (90-365)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluation date, YYYY-MM-DD (default today)")
	return cmd
}

func newCandidatesCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Rank Russell 1000 members outside the S&P 500 as promotion candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			rep, err := getApp().service.Candidates(ctx, limit, time.Time{})
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			printCandidates(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "max", 0, "Maximum tickers to score (default from config)")
	return cmd
}

func newChangesCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Show the S&P 500 change history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			rep, err := getApp().service.Changes(ctx)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			printChanges(cmd.OutOrStdout(), rep, limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Rows to print (0 for all)")
	return cmd
}

func newPerformanceCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	var frames bool
	cmd := &cobra.Command{
		Use:   "performance <date>",
		Short: "Rebased performance of the symbols changed on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			perf, err := getApp().service.ChangePerformance(ctx, date, frames)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), perf)
			}
			printPerformance(cmd.OutOrStdout(), perf)
			return nil
		},
	}
	cmd.Flags().BoolVar(&frames, "frames", false, "Include the rebased series in JSON output")
	return cmd
}

func newRebaseCmd(flags *rootFlags, getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebase <ticker> <date>",
		Short: "Rebase one ticker to 1.0 on an anchor date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			res, err := getApp().service.Rebase(ctx, args[0], date)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printRebase(cmd.OutOrStdout(), res)
			return nil
		},
	}
}
