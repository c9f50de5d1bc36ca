package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tradekit/flexmetrics/internal/aggregate"
	"github.com/tradekit/flexmetrics/internal/logger"
)

var reportDate string

var reportCmd = &cobra.Command{
	Use:   "report [weekly|monthly]",
	Short: "Rebuild a window summary from archived daily reports",
	Long: `Re-aggregates previously archived daily summaries into a weekly or
monthly report for the window containing the given date. No Flex fetch
is performed.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"weekly", "monthly"},
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "date inside the window, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	var kind aggregate.WindowKind
	switch args[0] {
	case "weekly":
		kind = aggregate.WindowWeek
	case "monthly":
		kind = aggregate.WindowMonth
	default:
		return fmt.Errorf("unknown window kind %q, want weekly or monthly", args[0])
	}

	date := time.Now().UTC()
	if reportDate != "" {
		var err error
		date, err = time.Parse("2006-01-02", reportDate)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	p, _, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	res, err := p.Rebuild(cmd.Context(), kind, date)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}
