package llmgateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"vrenamer/internal/verrors"
)

// OpenAICompat talks to an OpenAI-compatible chat.completions endpoint,
// following the exact call shape server/models/client.go and
// server/webrtc/frame_client.go use: a union-typed content slice built
// from openai.TextContentPart/ImageContentPart, a per-request
// context.WithTimeout, and openai-go/v3's structured client rather than a
// hand-rolled HTTP request.
type OpenAICompat struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAICompat constructs a backend bound to one model. baseURL may be
// empty to use the SDK's default OpenAI endpoint.
func NewOpenAICompat(baseURL, apiKey, model string, timeoutSec int) *OpenAICompat {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &OpenAICompat{
		client:  &client,
		model:   model,
		timeout: time.Duration(timeoutSec) * time.Second,
	}
}

func (g *OpenAICompat) Classify(ctx context.Context, prompt string, images []string, opts Opts) (string, error) {
	content := []openai.ChatCompletionContentPartUnionParam{}
	if prompt != "" {
		content = append(content, openai.TextContentPart(prompt))
	}

	for _, path := range images {
		dataURL, err := encodeImageDataURL(path)
		if err != nil {
			return "", &verrors.APIError{Cause: fmt.Errorf("encode image %s: %w", path, err)}
		}
		content = append(content, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}))
	}

	return g.complete(ctx, content, opts)
}

func (g *OpenAICompat) Generate(ctx context.Context, prompt string, opts Opts) (string, error) {
	content := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(prompt)}
	return g.complete(ctx, content, opts)
}

func (g *OpenAICompat) complete(ctx context.Context, content []openai.ChatCompletionContentPartUnionParam, opts Opts) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(content),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(opts.Temperature),
	}

	if opts.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(timeoutCtx, params)
	if err != nil {
		return "", &verrors.APIError{Cause: fmt.Errorf("chat completion request failed: %w", err)}
	}
	log.Printf("[Gateway] request completed in %v, tokens=%d", time.Since(start), resp.Usage.TotalTokens)

	if len(resp.Choices) == 0 {
		return "", &verrors.APIError{Body: "empty choices array in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func encodeImageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(data)), nil
}
