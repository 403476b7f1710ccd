package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIProvider struct {
	name   string
	apiKey string
	client *openai.Client
}

func newOpenAIClient(apiKey, baseURL string, headers map[string]string) *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}
	for k, v := range headers {
		if v == "" {
			continue
		}
		opts = append(opts, option.WithHeader(k, v))
	}
	client := openai.NewClient(opts...)
	return &client
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return p.complete(ctx, model, openai.UserMessage(prompt))
}

func (p *openAIProvider) GenerateWithImage(ctx context.Context, model string, prompt string, img *ImageInput) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image is required")
	}
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 2)
	if prompt != "" {
		parts = append(parts, openai.TextContentPart(prompt))
	}
	dataURL := "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}))
	return p.complete(ctx, model, openai.UserMessage(parts))
}

func (p *openAIProvider) complete(ctx context.Context, model string, msg openai.ChatCompletionMessageParamUnion) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{msg},
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

type openAIEmbedProvider struct {
	apiKey string
	client *openai.Client
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	src := resp.Data[0].Embedding
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out, nil
}

func decodeOpenAIConfig(args interface{}) (string, string, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return "", "", err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return apiKey, baseURL, nil
}

func createOpenAIFactory(args interface{}) (IAIProvider, error) {
	apiKey, baseURL, err := decodeOpenAIConfig(args)
	if err != nil {
		return nil, err
	}
	return &openAIProvider{
		name:   "openai",
		apiKey: apiKey,
		client: newOpenAIClient(apiKey, baseURL, nil),
	}, nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	apiKey, baseURL, err := decodeOpenAIConfig(args)
	if err != nil {
		return nil, err
	}
	return &openAIEmbedProvider{
		apiKey: apiKey,
		client: newOpenAIClient(apiKey, baseURL, nil),
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
