// Package app wires the pipeline stages together and owns the
// run-lifetime state: failure log, corpus store, politeness gate.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/fieldworkhq/marketscout/internal/aggregate"
	"github.com/fieldworkhq/marketscout/internal/analysis"
	"github.com/fieldworkhq/marketscout/internal/corpus"
	"github.com/fieldworkhq/marketscout/internal/extract"
	"github.com/fieldworkhq/marketscout/internal/faillog"
	"github.com/fieldworkhq/marketscout/internal/fetch"
	"github.com/fieldworkhq/marketscout/internal/normalize"
	"github.com/fieldworkhq/marketscout/internal/source"
)

// ErrNoLiveCaptures means no source produced a single usable capture.
// Per the exit code policy this is the one fetch condition that fails
// the whole run.
var ErrNoLiveCaptures = errors.New("no live captures")

// ErrCorpusEmpty means every capture was discarded during cleaning.
var ErrCorpusEmpty = errors.New("corpus is empty")

type App struct {
	cfg      Config
	failures *faillog.Log
}

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	failures, err := faillog.Open(cfg.FailLogPath)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, failures: failures}, nil
}

func (a *App) Close() error {
	return a.failures.Close()
}

// Run executes the full pipeline: sources file in, three artifact
// files out. Partial source failures are recorded and skipped; only
// the total absence of usable data fails the run.
func (a *App) Run(ctx context.Context) error {
	sources, err := source.Load(a.cfg.SourcesPath)
	if err != nil {
		return err
	}
	log.Info().Int("sources", len(sources)).Str("out", a.cfg.OutDir).Msg("run started")

	captures := a.fetchAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		return err
	}
	live := 0
	for _, c := range captures {
		if len(c.Body) > 0 {
			live++
		}
	}
	if live == 0 {
		return ErrNoLiveCaptures
	}
	if err := writeCaptures(a.cfg.OutDir, captures); err != nil {
		return err
	}

	store := a.buildCorpus(ctx, sources, captures)
	if err := ctx.Err(); err != nil {
		return err
	}
	store.Close()
	if store.Len() == 0 {
		return ErrCorpusEmpty
	}
	docs, err := store.Docs()
	if err != nil {
		return err
	}
	if err := writeCleaned(a.cfg.OutDir, docs); err != nil {
		return err
	}
	log.Info().Int("captures", len(captures)).Int("documents", len(docs)).Msg("corpus closed")

	return a.analyzeAndAggregate(ctx, store)
}

// Analyze re-runs analysis and aggregation over a previously written
// cleaned corpus, without refetching anything.
func (a *App) Analyze(ctx context.Context) error {
	docs, err := readCleaned(a.cfg.OutDir)
	if err != nil {
		return err
	}
	store := corpus.NewStore()
	for _, d := range docs {
		store.Admit(d)
	}
	store.Close()
	if store.Len() == 0 {
		return ErrCorpusEmpty
	}
	log.Info().Int("documents", store.Len()).Msg("re-analyzing existing corpus")
	return a.analyzeAndAggregate(ctx, store)
}

func (a *App) fetchAll(ctx context.Context, sources []source.Source) []fetch.Capture {
	fetcher := &fetch.Fetcher{
		Static: &fetch.Client{
			UserAgent:     a.cfg.UserAgent,
			MaxAttempts:   a.cfg.MaxAttempts,
			MaxConcurrent: a.cfg.FetchWorkers,
		},
		Browser:            a.renderer(),
		Robots:             &fetch.RobotsGate{UserAgent: a.cfg.UserAgent},
		MinStaticTextChars: a.cfg.MinStaticTextChars,
		PolitenessDelay:    a.cfg.PolitenessDelay,
		Links:              extract.SectionLinks,
		MaxSectionLinks:    a.cfg.MaxSectionLinks,
		Failures:           a.failures,
	}

	var mu sync.Mutex
	var captures []fetch.Capture
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(a.cfg.FetchWorkers))
	for _, src := range sources {
		g.Go(func() error {
			got := fetcher.Fetch(gctx, src)
			mu.Lock()
			captures = append(captures, got...)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures land in the log.
	_ = g.Wait()
	return captures
}

func (a *App) renderer() *fetch.Renderer {
	if !a.cfg.EnableBrowser {
		return nil
	}
	return &fetch.Renderer{
		UserAgent:     a.cfg.UserAgent,
		ScreenshotDir: a.cfg.ScreenshotDir,
	}
}

// buildCorpus extracts and normalizes captures concurrently. The
// store's atomic admission keeps duplicate fingerprints out even with
// parallel writers.
func (a *App) buildCorpus(ctx context.Context, sources []source.Source, captures []fetch.Capture) *corpus.Store {
	bySource := make(map[string]source.Source, len(sources))
	for _, s := range sources {
		bySource[s.URL] = s
	}
	normalizer := &normalize.Normalizer{MinContentChars: a.cfg.MinContentChars}
	store := corpus.NewStore()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(a.cfg.AnalysisWorkers))
	for _, c := range captures {
		if len(c.Body) == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := extract.Extract(c.ID, c.URL, c.Body)
			doc := normalizer.Clean(rec, bySource[c.SourceURL], c.FetchedAt)
			if !store.Admit(doc) {
				log.Debug().Str("url", c.URL).Msg("duplicate fingerprint dropped")
			}
			return nil
		})
	}
	_ = g.Wait()
	return store
}

func (a *App) analyzeAndAggregate(ctx context.Context, store *corpus.Store) error {
	engine := &analysis.Engine{
		Summarizer:       a.summarizer(),
		TopKeywords:      a.cfg.TopKeywords,
		ClusterThreshold: a.cfg.ClusterThreshold,
		Parallelism:      a.cfg.AnalysisWorkers,
		Failures:         a.failures,
	}
	results, err := engine.Analyze(ctx, store)
	if err != nil {
		return err
	}

	docs, err := store.Docs()
	if err != nil {
		return err
	}
	inputs := make([]aggregate.Input, len(docs))
	for i := range docs {
		inputs[i] = aggregate.Input{Doc: docs[i], Analysis: results[i]}
	}
	profiles := aggregate.Aggregate(inputs, aggregate.Options{NameSimilarity: a.cfg.NameSimilarity})
	stats := aggregate.ComputeStats(profiles)
	log.Info().Int("profiles", len(profiles)).Float64("score_mean", stats.ScoreMean).Msg("aggregation complete")

	if err := writeProfiles(a.cfg.OutDir, profiles); err != nil {
		return err
	}
	return writeStats(a.cfg.OutDir, stats)
}

func workerCount(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}

// summarizer picks generative when a model is configured, extractive
// otherwise. The generative path degrades to extractive on failure
// either way.
func (a *App) summarizer() analysis.Summarizer {
	if a.cfg.LLMModel == "" {
		return &analysis.Extractive{}
	}
	clientCfg := openai.DefaultConfig(a.cfg.LLMAPIKey)
	if a.cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = a.cfg.LLMBaseURL
	}
	return &analysis.Generative{
		Client: openai.NewClientWithConfig(clientCfg),
		Model:  a.cfg.LLMModel,
	}
}
