package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fieldworkhq/marketscout/internal/corpus"
	"github.com/fieldworkhq/marketscout/internal/faillog"
	"github.com/fieldworkhq/marketscout/internal/normalize"
)

func buildCorpus(t *testing.T, docs ...normalize.Document) *corpus.Store {
	t.Helper()
	store := corpus.NewStore()
	for _, d := range docs {
		if !store.Admit(d) {
			t.Fatalf("document %s not admitted", d.CaptureID)
		}
	}
	store.Close()
	return store
}

func techDoc(id string) normalize.Document {
	return normalize.Document{
		CaptureID:   id,
		SourceURL:   "https://" + id + ".example.com",
		URL:         "https://" + id + ".example.com",
		Text: "Our cloud platform handles deployment and api integration for enterprise software. " +
			"Cloud infrastructure and deployment automation are the core of our api services. " +
			"Software teams rely on our cloud tooling for every deployment they ship.",
		Lang:        "en",
		Fingerprint: "fp-" + id,
		Live:        true,
	}
}

func marketingDoc(id string) normalize.Document {
	return normalize.Document{
		CaptureID:   id,
		SourceURL:   "https://" + id + ".example.com",
		URL:         "https://" + id + ".example.com",
		Text: "Our marketing campaigns build brand audience through seo and advertising work. " +
			"Brand growth and marketing acquisition define every campaign we run for clients. " +
			"Advertising budgets convert into audience reach when the brand message lands.",
		Lang:        "en",
		Fingerprint: "fp-" + id,
		Live:        true,
	}
}

func TestAnalyzeRequiresClosedCorpus(t *testing.T) {
	store := corpus.NewStore()
	store.Admit(techDoc("open"))
	e := &Engine{}
	if _, err := e.Analyze(context.Background(), store); !errors.Is(err, corpus.ErrOpen) {
		t.Fatalf("Analyze on open corpus: err = %v, want ErrOpen", err)
	}
}

func TestAnalyzeAssignsThemesAndClusters(t *testing.T) {
	store := buildCorpus(t, techDoc("t1"), techDoc2(), marketingDoc("m1"))
	// A wide keyword window keeps the shared vocabulary inside the
	// cluster comparison for these short fixture texts.
	e := &Engine{TopKeywords: 25}
	results, err := e.Analyze(context.Background(), store)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Theme != ThemeTechnology {
		t.Fatalf("tech document classified as %q", results[0].Theme)
	}
	if results[2].Theme != ThemeMarketing {
		t.Fatalf("marketing document classified as %q", results[2].Theme)
	}
	if results[0].ClusterID != results[1].ClusterID {
		t.Fatalf("near-identical tech documents in clusters %d and %d",
			results[0].ClusterID, results[1].ClusterID)
	}
	if results[2].ClusterID == results[0].ClusterID {
		t.Fatalf("marketing document joined the tech cluster")
	}
	for i, r := range results {
		if r.Summary == "" {
			t.Fatalf("result %d has no summary", i)
		}
		if len(r.Keywords) == 0 {
			t.Fatalf("result %d has no keywords", i)
		}
	}
}

// techDoc2 differs from techDoc output only in phrasing so that the
// two share most top keywords without sharing a fingerprint.
func techDoc2() normalize.Document {
	d := techDoc("t2")
	d.Text = "Cloud deployment and api integration keep enterprise software running. " +
		"We automate cloud infrastructure so every api deployment ships cleanly. " +
		"Enterprise teams trust our cloud and deployment expertise with their software."
	return d
}

type failingSummarizer struct {
	marker string
	inner  Summarizer
}

func (f *failingSummarizer) Summarize(ctx context.Context, text, lang string) (string, error) {
	if strings.Contains(text, f.marker) {
		return "", errors.New("synthetic encoding failure")
	}
	return f.inner.Summarize(ctx, text, lang)
}

func TestAnalyzeIsolatesPerDocumentFailure(t *testing.T) {
	bad := techDoc("bad")
	bad.Text = "POISON " + bad.Text
	store := buildCorpus(t, techDoc("ok"), bad)

	failures, err := faillog.Open("")
	if err != nil {
		t.Fatalf("faillog.Open: %v", err)
	}
	e := &Engine{
		Summarizer: &failingSummarizer{marker: "POISON", inner: &Extractive{}},
		Failures:   failures,
	}
	results, err := e.Analyze(context.Background(), store)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if results[0].Err != "" {
		t.Fatalf("healthy document marked failed: %q", results[0].Err)
	}
	if results[0].Theme == "" || len(results[0].Keywords) == 0 {
		t.Fatalf("healthy document lost its analysis: %+v", results[0])
	}
	if results[1].Err == "" {
		t.Fatalf("failed document carries no error marker")
	}
	if len(results[1].Keywords) != 0 || results[1].Summary != "" {
		t.Fatalf("failed document should have an empty result, got %+v", results[1])
	}
	if failures.Len() != 1 {
		t.Fatalf("failure log has %d entries, want 1", failures.Len())
	}
	if entries := failures.Entries(); entries[0].Kind != faillog.KindAnalysisFailed {
		t.Fatalf("failure kind = %q, want %q", entries[0].Kind, faillog.KindAnalysisFailed)
	}
}

type scriptedClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
		}},
	}, nil
}

func TestGenerativeSummaryUsesModelOutput(t *testing.T) {
	client := &scriptedClient{content: "A concise model-written summary."}
	g := &Generative{Client: client, Model: "test-model"}
	got, err := g.Summarize(context.Background(), "Some page text about cloud services and more.", "en")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "A concise model-written summary." {
		t.Fatalf("got %q", got)
	}
	if client.lastReq.Model != "test-model" {
		t.Fatalf("request model = %q", client.lastReq.Model)
	}
	if len(client.lastReq.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(client.lastReq.Messages))
	}
}

func TestGenerativeSummaryFallsBackOnError(t *testing.T) {
	text := "We build software for logistics companies across Europe."
	g := &Generative{Client: &scriptedClient{err: errors.New("backend down")}, Model: "test-model"}
	got, err := g.Summarize(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("fallback must not surface the backend error, got %v", err)
	}
	if got != text {
		t.Fatalf("expected extractive fallback output, got %q", got)
	}
}

// haltingSummarizer cancels the run from inside its first call, the way an
// operator interrupt lands while a document is being summarized.
type haltingSummarizer struct {
	cancel context.CancelFunc
	calls  int
}

func (h *haltingSummarizer) Summarize(_ context.Context, text, _ string) (string, error) {
	h.calls++
	h.cancel()
	return text, nil
}

func TestAnalyzeStopsBetweenDocumentsOnCancel(t *testing.T) {
	store := buildCorpus(t, techDoc("t1"), techDoc2(), marketingDoc("m1"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &haltingSummarizer{cancel: cancel}
	e := &Engine{Summarizer: s, Parallelism: 1}
	results, err := e.Analyze(ctx, store)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Analyze: err = %v, want context.Canceled", err)
	}
	if results != nil {
		t.Fatalf("cancelled run must not hand back partial results")
	}
	if s.calls != 1 {
		t.Fatalf("summarizer ran %d times after cancellation, want 1", s.calls)
	}
}
