package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/config"
	"github.com/tradekit/flexmetrics/internal/flex"
	"github.com/tradekit/flexmetrics/internal/logger"
	"github.com/tradekit/flexmetrics/internal/metrics"
	"github.com/tradekit/flexmetrics/internal/pipeline"
	"github.com/tradekit/flexmetrics/internal/storage/archive"
	"go.uber.org/zap"
)

var (
	runDate    string
	runWeekly  bool
	runMonthly bool
	runWatch   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the Flex statement and generate reports",
	Long: `Fetches the configured Flex query, writes a daily summary per traded
day, and generates weekly and monthly summaries when they are due. With
--watch the command stays resident and runs on the configured cron schedule.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "run date in YYYY-MM-DD (default today)")
	runCmd.Flags().BoolVar(&runWeekly, "weekly", false, "force a weekly summary")
	runCmd.Flags().BoolVar(&runMonthly, "monthly", false, "force a monthly summary")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "keep running on the configured cron schedule")
	rootCmd.AddCommand(runCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		cfg.Flex.Token = os.Getenv("IBKR_FLEX_TOKEN")
		cfg.Flex.QueryID = os.Getenv("IBKR_FLEX_QUERY_ID")
		log.Warn("no config file specified, using defaults and environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func buildArchive(cfg *config.Config) (archive.Archive, error) {
	switch cfg.Storage.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Storage.Path)
	}
}

func buildPipeline(cfg *config.Config, log *zap.Logger) (*pipeline.Pipeline, *metrics.Registry, error) {
	store, err := buildArchive(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive: %w", err)
	}

	var opts []flex.Option
	if cfg.Flex.BaseURL != "" {
		opts = append(opts, flex.WithBaseURL(cfg.Flex.BaseURL))
	}
	if cfg.Flex.PollInterval > 0 {
		opts = append(opts, flex.WithPollInterval(cfg.Flex.PollInterval))
	}
	if cfg.Flex.MaxAttempts > 0 {
		opts = append(opts, flex.WithMaxAttempts(cfg.Flex.MaxAttempts))
	}
	client := flex.NewClient(cfg.Flex.Token, cfg.Flex.QueryID, opts...)

	reg := metrics.NewRegistry()
	return pipeline.New(cfg, log, client, store, reg), reg, nil
}

func parseRunDate() (time.Time, error) {
	if runDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", runDate)
}

func forcedWindows() []aggregate.WindowKind {
	var force []aggregate.WindowKind
	if runWeekly {
		force = append(force, aggregate.WindowWeek)
	}
	if runMonthly {
		force = append(force, aggregate.WindowMonth)
	}
	return force
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	p, reg, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	if !runWatch {
		date, err := parseRunDate()
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}

		res, err := p.Run(cmd.Context(), pipeline.Request{
			Today:   date,
			Force:   forcedWindows(),
			Trigger: "manual",
		})
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}

	return watch(cmd.Context(), cfg, p, reg, log)
}

// watch keeps the process resident and fires a pipeline run on the
// configured cron schedule until interrupted.
func watch(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, reg *metrics.Registry, log *zap.Logger) error {
	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule.Cron, func() {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		res, err := p.Run(ctx, pipeline.Request{Today: today, Trigger: "scheduled"})
		if err != nil {
			log.Error("scheduled run failed", zap.Error(err))
			return
		}
		log.Info("scheduled run complete",
			zap.String("runId", res.RunID),
			zap.Int("days", res.DaysWritten),
			zap.Strings("windows", res.Windows),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule.Cron, err)
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		log.Info("metrics endpoint up", zap.String("listen", cfg.Metrics.Listen))
	}

	c.Start()
	log.Info("watching", zap.String("cron", cfg.Schedule.Cron))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	<-c.Stop().Done()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func printResult(res *pipeline.Result) {
	fmt.Printf("run %s\n", res.RunID)
	fmt.Printf("  records: %d parsed, %d invalid, %d filtered\n",
		res.ParsedRecords, res.InvalidRecords, res.FilteredRecords)
	fmt.Printf("  days written: %d\n", res.DaysWritten)
	for _, w := range res.Windows {
		fmt.Printf("  window: %s\n", w)
	}
	for _, p := range res.Paths {
		fmt.Printf("  wrote %s\n", p)
	}
}
