package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

type anthropicConfig struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url"`
	MaxTokens int64  `json:"max_tokens"`
}

type anthropicProvider struct {
	apiKey    string
	maxTokens int64
	client    *anthropic.Client
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return p.send(ctx, model, anthropic.NewTextBlock(prompt))
}

func (p *anthropicProvider) GenerateWithImage(ctx context.Context, model string, prompt string, img *ImageInput) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image is required")
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	if prompt != "" {
		blocks = append(blocks, anthropic.NewTextBlock(prompt))
	}
	return p.send(ctx, model, blocks...)
}

func (p *anthropicProvider) send(ctx context.Context, model string, blocks ...anthropic.ContentBlockParamUnion) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: p.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func createAnthropicFactory(args interface{}) (IAIProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	opts := []anthropicoption.RequestOption{anthropicoption.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, anthropicoption.WithBaseURL(base))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicProvider{
		apiKey:    apiKey,
		maxTokens: maxTokens,
		client:    &client,
	}, nil
}

func init() {
	Register("anthropic", createAnthropicFactory)
}
