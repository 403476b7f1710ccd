package ai

import (
	"strings"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

// OpenRouter speaks the OpenAI chat protocol, so it reuses openAIProvider with its own base URL and headers.
func createOpenRouterFactory(args interface{}) (IAIProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	headers := map[string]string{
		"HTTP-Referer": strings.TrimSpace(cfg.HTTPReferer),
		"X-Title":      strings.TrimSpace(cfg.XTitle),
	}
	return &openAIProvider{
		name:   "openrouter",
		apiKey: apiKey,
		client: newOpenAIClient(apiKey, baseURL, headers),
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
