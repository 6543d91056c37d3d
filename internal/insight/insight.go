// Package insight turns an assembled comparison into a short prose
// summary via the Anthropic API. Insight generation is strictly best
// effort: any failure leaves the response without an insight rather than
// failing the run.
package insight

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/pkg/anthropic"
)

// Generator produces a summary for an assembled response.
type Generator interface {
	Summary(ctx context.Context, resp *model.AnalyzeResponse) (string, error)
}

const defaultModel = "claude-haiku-4-5-20251001"

const systemPrompt = "You are a competitive analyst for small businesses. " +
	"Given website comparison metrics, write a short plain-language summary: " +
	"where the user leads, where the competitor leads, and the single most " +
	"impactful next step. Three to five sentences, no markdown, no preamble."

// LLMGenerator generates insights through the Anthropic messages API.
type LLMGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// Option configures the generator.
type Option func(*LLMGenerator)

// WithModel overrides the model ID.
func WithModel(model string) Option {
	return func(g *LLMGenerator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithMaxTokens overrides the completion budget.
func WithMaxTokens(n int64) Option {
	return func(g *LLMGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// NewGenerator creates an insight generator over the client.
func NewGenerator(client anthropic.Client, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{
		client:    client,
		model:     defaultModel,
		maxTokens: 512,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Summary builds the comparison prompt and requests a single completion.
func (g *LLMGenerator) Summary(ctx context.Context, resp *model.AnalyzeResponse) (string, error) {
	msg, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildPrompt(resp)},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "insight: create message")
	}
	msg.Usage.LogCost(g.model, "insight")

	text := strings.TrimSpace(msg.Text())
	if text == "" {
		return "", eris.New("insight: empty completion")
	}
	return text, nil
}

// Maybe runs the generator and attaches the result to the response,
// logging instead of failing when generation errors out. A nil generator
// is a no-op.
func Maybe(ctx context.Context, g Generator, resp *model.AnalyzeResponse) {
	if g == nil || resp == nil {
		return
	}
	summary, err := g.Summary(ctx, resp)
	if err != nil {
		zap.L().Warn("insight generation failed", zap.Error(err))
		return
	}
	resp.Insight = summary
}
