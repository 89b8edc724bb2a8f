package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/verity/internal/findings"
	"github.com/JaimeStill/verity/internal/signals"
	"github.com/JaimeStill/verity/pkg/retry"
)

// ErrEmptyRewrite is returned when the generative service produced no text.
var ErrEmptyRewrite = errors.New("empty rewrite")

// RewriteRequest carries what a generative rewrite needs to know.
type RewriteRequest struct {
	Query    string
	Original string
	Draft    string
	Findings []findings.Finding
}

// Generator produces a compliant rewrite of a response.
type Generator interface {
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
}

const rewriteSystemPrompt = "You are a compliance assistant that corrects AI responses to fix violations."

// OpenAIGenerator rewrites responses with a chat model.
type OpenAIGenerator struct {
	client    signals.ChatClient
	model     string
	maxTokens int
	retry     retry.Config
}

// NewOpenAIGenerator creates a generator backed by an OpenAI-compatible client.
func NewOpenAIGenerator(client signals.ChatClient, model string, rc retry.Config) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:    client,
		model:     model,
		maxTokens: 500,
		retry:     rc,
	}
}

func (g *OpenAIGenerator) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: rewriteSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: rewritePrompt(req)},
		},
	}

	var out string
	err := retry.Do(ctx, g.retry, func(ctx context.Context) error {
		resp, err := g.client.CreateChatCompletion(ctx, chat)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyRewrite
		}
		out = strings.TrimSpace(resp.Choices[0].Message.Content)
		if out == "" {
			return ErrEmptyRewrite
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}
	return out, nil
}

func rewritePrompt(req RewriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Correct the following AI response to address the violations while preserving the original intent.\n\n")
	fmt.Fprintf(&b, "Original Query: %s\n\n", req.Query)
	fmt.Fprintf(&b, "Original Response: %s\n\n", req.Original)
	if req.Draft != "" && req.Draft != req.Original {
		fmt.Fprintf(&b, "Draft Correction: %s\n\n", req.Draft)
	}
	b.WriteString("Violations to Fix:\n")
	for _, f := range req.Findings {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", f.Type, f.Severity, f.Description)
	}
	b.WriteString(`
Requirements:
1. Address all violations
2. Preserve the original intent and helpfulness
3. Add required disclaimers if needed
4. Remove or correct false information
5. Keep the response natural and professional

Reply with the corrected response only.`)
	return b.String()
}
