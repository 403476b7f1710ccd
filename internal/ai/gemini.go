package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

// geminiClient creates the genai client on first use and reuses it afterwards.
type geminiClient struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client
}

func (c *geminiClient) get(ctx context.Context) (*genai.Client, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

type geminiProvider struct {
	client *geminiClient
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return p.generate(ctx, model, []*genai.Part{{Text: prompt}})
}

func (p *geminiProvider) GenerateWithImage(ctx context.Context, model string, prompt string, img *ImageInput) (string, error) {
	if img == nil {
		return "", fmt.Errorf("image is required")
	}
	parts := make([]*genai.Part, 0, 2)
	if prompt != "" {
		parts = append(parts, &genai.Part{Text: prompt})
	}
	parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}})
	return p.generate(ctx, model, parts)
}

func (p *geminiProvider) generate(ctx context.Context, model string, parts []*genai.Part) (string, error) {
	client, err := p.client.get(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{{Parts: parts}},
		nil,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

type geminiEmbedProvider struct {
	client *geminiClient
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	client, err := p.client.get(ctx)
	if err != nil {
		return nil, err
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{
			TaskType: taskType,
		}
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		config,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding values returned")
	}
	return resp.Embeddings[0].Values, nil
}

func newGeminiClient(args interface{}) (*geminiClient, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	return &geminiClient{apiKey: key}, nil
}

func createGeminiFactory(args interface{}) (IAIProvider, error) {
	client, err := newGeminiClient(args)
	if err != nil {
		return nil, err
	}
	return &geminiProvider{client: client}, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	client, err := newGeminiClient(args)
	if err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{client: client}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
