package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fieldworkhq/marketscout/internal/corpus"
	"github.com/fieldworkhq/marketscout/internal/faillog"
	"github.com/fieldworkhq/marketscout/internal/normalize"
)

// Result is the per-document analysis output, attached 1:1 to a
// surviving cleaned document. Err is set when analysis of that one
// document failed; the rest of the corpus is unaffected.
type Result struct {
	CaptureID string    `json:"capture_id"`
	Keywords  []Keyword `json:"keywords"`
	Theme     string    `json:"theme"`
	Summary   string    `json:"summary"`
	ClusterID int       `json:"cluster_id"`
	Err       string    `json:"error,omitempty"`
}

// DefaultTopKeywords is how many ranked terms each result carries.
const DefaultTopKeywords = 10

// Engine runs the two analysis phases over a closed corpus. The
// per-document pass parallelizes freely; corpus-wide statistics are
// computed once between the phases.
type Engine struct {
	Summarizer       Summarizer
	Classifier       *Classifier
	TopKeywords      int
	ClusterThreshold float64
	Parallelism      int
	Failures         *faillog.Log
}

// Analyze returns one Result per corpus document, in corpus order.
// The store must be closed first; analyzing an open corpus is a
// sequencing bug surfaced as corpus.ErrOpen.
func (e *Engine) Analyze(ctx context.Context, store *corpus.Store) ([]Result, error) {
	docs, err := store.Docs()
	if err != nil {
		return nil, fmt.Errorf("analysis requires a closed corpus: %w", err)
	}

	summarizer := e.Summarizer
	if summarizer == nil {
		summarizer = &Extractive{}
	}
	classifier := e.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}
	topN := e.TopKeywords
	if topN <= 0 {
		topN = DefaultTopKeywords
	}
	threshold := e.ClusterThreshold
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}
	parallelism := e.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	results := make([]Result, len(docs))
	tokens := make([][]string, len(docs))

	// Phase one: tokenize and summarize each document independently.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc := docs[i]
			results[i] = Result{CaptureID: doc.CaptureID}
			summary, err := summarizer.Summarize(gctx, doc.Text, doc.Lang)
			if err != nil {
				e.markFailed(&results[i], doc, err)
				return nil
			}
			results[i].Summary = summary
			tokens[i] = Tokenize(doc.Text, doc.Lang)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Corpus-wide statistics over the now-fixed document set.
	df := DocumentFrequencies(tokens)
	corpusSize := len(docs)

	// Phase two: rank and classify against the shared frequency table.
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if results[i].Err != "" {
				return nil
			}
			results[i].Keywords = RankKeywords(tokens[i], df, corpusSize, topN)
			results[i].Theme = classifier.Classify(results[i].Keywords, docs[i].Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.assignClusters(results, topN, threshold)
	return results, nil
}

func (e *Engine) assignClusters(results []Result, topN int, threshold float64) {
	sets := make([]map[string]struct{}, len(results))
	for i, r := range results {
		set := make(map[string]struct{}, len(r.Keywords))
		for j, kw := range r.Keywords {
			if j >= topN {
				break
			}
			set[kw.Term] = struct{}{}
		}
		sets[i] = set
	}
	ids := Cluster(sets, threshold)
	for i := range results {
		results[i].ClusterID = ids[i]
	}
}

func (e *Engine) markFailed(r *Result, doc normalize.Document, err error) {
	r.Err = err.Error()
	log.Warn().Err(err).Str("url", doc.URL).Msg("document analysis failed")
	if e.Failures != nil {
		e.Failures.Record("analysis", doc.SourceURL, faillog.KindAnalysisFailed, err)
	}
}
