// Command marketscout crawls a list of company sites, cleans and
// analyzes what it finds, and writes consolidated competitor profiles.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marketscout",
	Short: "Competitive intelligence scraping and analysis pipeline",
	Long: "marketscout fetches a source list of company sites, extracts and normalizes " +
		"their content, runs corpus-wide keyword and theme analysis, and aggregates " +
		"everything into per-entity profiles for downstream reporting.",
}

var verbose bool

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
