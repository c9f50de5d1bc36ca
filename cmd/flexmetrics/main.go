package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "flexmetrics",
	Short: "flexmetrics - trading performance reports from IBKR Flex statements",
	Long: `flexmetrics fetches trade confirmations from the IBKR Flex Web Service
and turns them into daily, weekly and monthly performance summaries with
win rates, P&L attribution, risk metrics and rule-based advisories.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
