package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/verity/pkg/formatting"
	"github.com/JaimeStill/verity/pkg/retry"
)

// ChatClient is the subset of the OpenAI client used by the signal and
// correction collaborators.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const factCheckPrompt = `You verify factual claims. Reply with a JSON object:
{"status": "verified" | "false" | "unverified", "confidence": 0.0-1.0, "explanation": "...", "correction": "..."}
Use "false" only when the claim is wrong in the context of the question. Put the correct statement in "correction" when status is "false".`

// OpenAI asks a chat model to judge a claim. It is only used when configured.
type OpenAI struct {
	client ChatClient
	model  string
	retry  retry.Config
}

// NewOpenAI creates a chat-model fact source.
func NewOpenAI(client ChatClient, model string, rc retry.Config) *OpenAI {
	return &OpenAI{client: client, model: model, retry: rc}
}

func (o *OpenAI) Name() string { return "openai" }

type llmVerdict struct {
	Status      string  `json:"status"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
	Correction  string  `json:"correction"`
}

func (o *OpenAI) Verify(ctx context.Context, claim Claim, query string) (Verdict, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: factCheckPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Question: %s\nClaim: %s", query, claim.Text)},
		},
	}

	var content string
	err := retry.Do(ctx, o.retry, func(ctx context.Context) error {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	v, err := formatting.Parse[llmVerdict](content)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: decode verdict: %v", ErrSourceUnavailable, err)
	}

	status := Status(strings.ToLower(v.Status))
	switch status {
	case StatusVerified, StatusFalse:
	default:
		status = StatusUnverified
	}

	return Verdict{
		Status:      status,
		Confidence:  max(0, min(v.Confidence, 0.9)),
		Source:      o.Name(),
		Details:     v.Explanation,
		Alternative: v.Correction,
	}, nil
}
