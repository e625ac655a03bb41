package analysis

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer produces a short abstract of one document. Both the
// extractive default and the optional generative backend satisfy it.
type Summarizer interface {
	Summarize(ctx context.Context, text, lang string) (string, error)
}

// DefaultSummarySentences bounds the extractive summary length.
const DefaultSummarySentences = 3

var sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

// Extractive ranks sentences by term-frequency overlap with the
// document's own dominant terms and returns the top K in their
// original order. Same input, same output.
type Extractive struct {
	MaxSentences int
}

func (e *Extractive) Summarize(_ context.Context, text, lang string) (string, error) {
	limit := e.MaxSentences
	if limit <= 0 {
		limit = DefaultSummarySentences
	}
	sentences := splitSentences(text)
	if len(sentences) <= limit {
		return strings.Join(sentences, " "), nil
	}

	tf := make(map[string]int)
	for _, t := range Tokenize(text, lang) {
		tf[t]++
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		tokens := Tokenize(s, lang)
		if len(tokens) == 0 {
			continue
		}
		var sum int
		for _, t := range tokens {
			sum += tf[t]
		}
		ranked = append(ranked, scored{index: i, score: float64(sum) / float64(len(tokens))})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].index < ranked[j].index })

	picked := make([]string, len(ranked))
	for i, r := range ranked {
		picked[i] = sentences[r.index]
	}
	return strings.Join(picked, " "), nil
}

func splitSentences(text string) []string {
	raw := sentenceRe.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(s) < 25 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ChatClient is the minimal chat-model surface the generative
// summarizer needs. Any OpenAI-compatible backend can be adapted.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var errEmptyCompletion = errors.New("empty completion")

// Generative asks a chat model for the summary and falls back to the
// extractive path on any failure, so callers always get a summary.
type Generative struct {
	Client   ChatClient
	Model    string
	Fallback *Extractive
}

func (g *Generative) Summarize(ctx context.Context, text, lang string) (string, error) {
	out, err := g.generate(ctx, text, lang)
	if err != nil {
		return g.fallback().Summarize(ctx, text, lang)
	}
	return out, nil
}

func (g *Generative) generate(ctx context.Context, text, lang string) (string, error) {
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return "", errors.New("generative summarizer not configured")
	}
	system := "You summarize company web pages for competitive analysis. Use only the provided text. Reply with the summary alone, no preamble."
	user := "Summarize the following page in at most three sentences, in language \"" + lang + "\":\n\n" + text
	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errEmptyCompletion
	}
	return out, nil
}

func (g *Generative) fallback() *Extractive {
	if g.Fallback != nil {
		return g.Fallback
	}
	return &Extractive{}
}
