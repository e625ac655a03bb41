package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fieldworkhq/marketscout/internal/app"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "Re-run analysis and aggregation over an existing cleaned corpus",
	Long: "analyze reads the cleaned corpus written by a previous run from the output " +
		"directory and recomputes keywords, themes, summaries, clusters and profiles " +
		"without fetching anything.",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cfg, err := buildConfig()
		if err != nil {
			log.Error().Err(err).Msg("configuration invalid")
			os.Exit(1)
		}
		a, err := app.New(cfg)
		if err != nil {
			log.Error().Err(err).Msg("startup failed")
			os.Exit(1)
		}
		err = a.Analyze(cmd.Context())
		_ = a.Close()
		exitOn(err)
	},
}
