package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/modelwatch/config"
	"github.com/use-agent/modelwatch/watcher"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "modelwatch",
	Short: "Watch leaderboard pages for AI model mentions",
	Long: `modelwatch checks a curated set of leaderboard pages for mentions of
specific AI model names, keeps a snapshot of what was found where, and
reports what changed since the last run.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		watcher.InitLogger(cfg.Log)
	},
}

func main() {
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newStatusCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
