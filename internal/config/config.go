package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	defaultTextModel   = "gemini-pro"
	defaultVisionModel = "gemini-1.5-flash"
	defaultEmbedModel  = "models/embedding-001"

	defaultAuthRateLimitMs = 1000
)

type Config struct {
	Port              int                `json:"port"`
	JWTSecret         string             `json:"jwt_secret"`
	DBPath            string             `json:"db_path"`
	SessionTTLMinutes int                `json:"session_ttl_minutes"`
	AuthRateLimitMs   int                `json:"auth_rate_limit_ms"`
	CORSAllowlist     []string           `json:"cors_allowlist"`
	LogConfig         logger.LogConfig   `json:"log_config"`
	AccountStore      AccountStoreConfig `json:"account_store"`
	FileStore         FileStoreConfig    `json:"file_store"`
	AI                AIConfig           `json:"ai"`
	DocQA             DocQAConfig        `json:"docqa"`
	About             AboutConfig        `json:"about"`
}

type AccountStoreConfig struct {
	Type string `json:"type"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIProviderConfig struct {
	Name string      `json:"name"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ModelRef binds a capability to one model on one configured provider.
type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type EmbedCacheConfig struct {
	LRUSize       int  `json:"lru_size"`
	LRUTTLMinutes int  `json:"lru_ttl_minutes"`
	DB            bool `json:"db"`
	MaxAgeDays    int  `json:"max_age_days"`
}

type AIConfig struct {
	Providers     []AIProviderConfig `json:"providers"`
	Text          []ModelRef         `json:"text"`
	Vision        []ModelRef         `json:"vision"`
	Answer        []ModelRef         `json:"answer"`
	Embed         []ModelRef         `json:"embed"`
	Timeout       int                `json:"timeout"`
	MaxInputChars int                `json:"max_input_chars"`
	EmbedCache    EmbedCacheConfig   `json:"embed_cache"`
}

type IndexConfig struct {
	Type string `json:"type"`
	Key  string `json:"key"`
	DSN  string `json:"dsn"`
}

type DocQAConfig struct {
	ChunkSize    int         `json:"chunk_size"`
	ChunkOverlap int         `json:"chunk_overlap"`
	TopK         int         `json:"top_k"`
	MaxUploadMB  int         `json:"max_upload_mb"`
	Index        IndexConfig `json:"index"`
}

type AboutConfig struct {
	Creator string   `json:"creator"`
	Contact []string `json:"contact"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 120
	}
	// A negative auth_rate_limit_ms turns the limiter off.
	if c.AuthRateLimitMs == 0 {
		c.AuthRateLimitMs = defaultAuthRateLimitMs
	}
	if c.AuthRateLimitMs < 0 {
		c.AuthRateLimitMs = 0
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}

	c.AccountStore.Type = strings.ToLower(strings.TrimSpace(c.AccountStore.Type))
	if c.AccountStore.Type == "" {
		c.AccountStore.Type = "memory"
	}
	switch c.AccountStore.Type {
	case "memory":
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for sqlite account store")
		}
	default:
		return fmt.Errorf("account_store.type must be memory or sqlite")
	}

	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	if c.FileStore.Type == "local" && c.FileStore.Data == nil {
		c.FileStore.Data = map[string]interface{}{"dir": "data"}
	}

	if err := c.AI.normalize(); err != nil {
		return err
	}
	if c.AI.EmbedCache.DB && c.DBPath == "" {
		return fmt.Errorf("db_path is required when ai.embed_cache.db is enabled")
	}
	return c.DocQA.normalize()
}

func (a *AIConfig) normalize() error {
	if len(a.Providers) == 0 {
		a.Providers = []AIProviderConfig{{Name: "gemini", Type: "gemini", Data: map[string]interface{}{}}}
	}
	names := make(map[string]bool, len(a.Providers))
	for i := range a.Providers {
		p := &a.Providers[i]
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if p.Type == "" {
			return fmt.Errorf("ai.providers[%d].type is required", i)
		}
		if p.Name == "" {
			p.Name = p.Type
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate ai provider name: %s", p.Name)
		}
		names[p.Name] = true
		if p.Data == nil {
			p.Data = map[string]interface{}{}
		}
	}
	first := a.Providers[0].Name
	if len(a.Text) == 0 {
		a.Text = []ModelRef{{Provider: first, Model: defaultTextModel}}
	}
	if len(a.Vision) == 0 {
		a.Vision = []ModelRef{{Provider: first, Model: defaultVisionModel}}
	}
	if len(a.Answer) == 0 {
		a.Answer = append([]ModelRef(nil), a.Text...)
	}
	if len(a.Embed) == 0 {
		a.Embed = []ModelRef{{Provider: first, Model: defaultEmbedModel}}
	}
	for _, group := range [][]ModelRef{a.Text, a.Vision, a.Answer, a.Embed} {
		for _, ref := range group {
			if !names[ref.Provider] {
				return fmt.Errorf("ai model %q references unknown provider %q", ref.Model, ref.Provider)
			}
			if ref.Model == "" {
				return fmt.Errorf("ai model is required for provider %q", ref.Provider)
			}
		}
	}
	if a.Timeout <= 0 {
		a.Timeout = 60
	}
	if a.EmbedCache.LRUSize == 0 {
		a.EmbedCache.LRUSize = 10000
	}
	if a.EmbedCache.LRUTTLMinutes == 0 {
		a.EmbedCache.LRUTTLMinutes = 120
	}
	if a.EmbedCache.MaxAgeDays <= 0 {
		a.EmbedCache.MaxAgeDays = 30
	}
	return nil
}

func (d *DocQAConfig) normalize() error {
	if d.ChunkSize <= 0 {
		d.ChunkSize = 10000
	}
	// Unset overlap is a tenth of the chunk size; a negative value means none.
	switch {
	case d.ChunkOverlap == 0:
		d.ChunkOverlap = d.ChunkSize / 10
	case d.ChunkOverlap < 0:
		d.ChunkOverlap = 0
	}
	if d.ChunkOverlap >= d.ChunkSize {
		return fmt.Errorf("docqa.chunk_overlap must be smaller than docqa.chunk_size")
	}
	if d.TopK <= 0 {
		d.TopK = 4
	}
	if d.MaxUploadMB <= 0 {
		d.MaxUploadMB = 50
	}
	d.Index.Type = strings.ToLower(strings.TrimSpace(d.Index.Type))
	if d.Index.Type == "" {
		d.Index.Type = "file"
	}
	switch d.Index.Type {
	case "file":
		if d.Index.Key == "" {
			d.Index.Key = "doc_index.json"
		}
	case "pgvector":
		if d.Index.DSN == "" {
			return fmt.Errorf("docqa.index.dsn is required for pgvector index")
		}
	default:
		return fmt.Errorf("docqa.index.type must be file or pgvector")
	}
	return nil
}
