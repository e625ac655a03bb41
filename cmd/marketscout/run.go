package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fieldworkhq/marketscout/internal/app"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, extract, normalize, analyze, aggregate",
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
		err = a.Run(cmd.Context())
		_ = a.Close()
		exitOn(err)
	},
}

var (
	flagConfig        string
	flagSources       string
	flagOut           string
	flagWorkers       int
	flagPoliteness    time.Duration
	flagBrowser       bool
	flagScreenshotDir string
	flagLLMBase       string
	flagLLMModel      string
	flagFailLog       string
)

func init() {
	for _, c := range []*cobra.Command{runCommand, analyzeCommand} {
		c.Flags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
		c.Flags().StringVarP(&flagOut, "out", "o", "", "output directory for artifact files")
		c.Flags().StringVar(&flagLLMBase, "llm-base", "", "OpenAI-compatible base URL for generative summaries")
		c.Flags().StringVar(&flagLLMModel, "llm-model", "", "model name; empty keeps summaries extractive")
		c.Flags().StringVar(&flagFailLog, "fail-log", "", "path of the append-only failure log")
	}
	runCommand.Flags().StringVarP(&flagSources, "sources", "s", "", "CSV file of sources (url, strategy, category)")
	runCommand.Flags().IntVar(&flagWorkers, "workers", 0, "fetch worker pool size")
	runCommand.Flags().DurationVar(&flagPoliteness, "politeness", 0, "minimum delay between hits to one domain")
	runCommand.Flags().BoolVar(&flagBrowser, "browser", false, "enable headless-browser rendering for script-heavy sites")
	runCommand.Flags().StringVar(&flagScreenshotDir, "screenshots", "", "directory for full-page screenshots of rendered sites")

	rootCmd.AddCommand(runCommand)
	rootCmd.AddCommand(analyzeCommand)
}

// buildConfig layers defaults, file config and flags, flags winning.
func buildConfig() (app.Config, error) {
	cfg := app.DefaultConfig()
	if flagSources != "" {
		cfg.SourcesPath = flagSources
	}
	if flagOut != "" {
		cfg.OutDir = flagOut
	}
	if flagWorkers > 0 {
		cfg.FetchWorkers = flagWorkers
	}
	if flagPoliteness > 0 {
		cfg.PolitenessDelay = flagPoliteness
	}
	if flagBrowser {
		cfg.EnableBrowser = true
	}
	if flagScreenshotDir != "" {
		cfg.ScreenshotDir = flagScreenshotDir
		cfg.EnableBrowser = true
	}
	if flagLLMBase != "" {
		cfg.LLMBaseURL = flagLLMBase
	}
	if flagLLMModel != "" {
		cfg.LLMModel = flagLLMModel
	}
	if flagFailLog != "" {
		cfg.FailLogPath = flagFailLog
	}
	cfg.LLMAPIKey = os.Getenv("MARKETSCOUT_LLM_KEY")
	cfg.Verbose = verbose

	if flagConfig != "" {
		fc, err := app.LoadConfigFile(flagConfig)
		if err != nil {
			return cfg, err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	return cfg, app.ValidateConfig(cfg)
}

// exitOn applies the exit code policy: partial failures already
// returned nil upstream, total data absence exits 2, anything else
// (configuration, I/O) exits 1.
func exitOn(err error) {
	if err == nil {
		return
	}
	log.Error().Err(err).Msg("run failed")
	if errors.Is(err, app.ErrNoLiveCaptures) || errors.Is(err, app.ErrCorpusEmpty) {
		os.Exit(2)
	}
	os.Exit(1)
}
