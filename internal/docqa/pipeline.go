package docqa

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/index"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

type Embedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

type Answerer interface {
	AnswerFromContext(ctx context.Context, contextText, question string) (string, error)
}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type ProcessResult struct {
	Documents  int   `json:"documents"`
	Characters int   `json:"characters"`
	Chunks     int   `json:"chunks"`
	Elapsed    int64 `json:"elapsed_ms"`
}

type Source struct {
	Position int     `json:"position"`
	Score    float32 `json:"score"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Pipeline owns the single shared index. Process replaces it wholesale;
// Query reads whatever the last successful Process left behind.
type Pipeline struct {
	splitter *Splitter
	embedder Embedder
	answerer Answerer
	index    index.Index
	topK     int

	processMu sync.Mutex
}

func NewPipeline(cfg Config, embedder Embedder, answerer Answerer, idx index.Index) *Pipeline {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}
	return &Pipeline{
		splitter: NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder: embedder,
		answerer: answerer,
		index:    idx,
		topK:     topK,
	}
}

func (p *Pipeline) Process(ctx context.Context, docs []Document) (*ProcessResult, error) {
	if len(docs) == 0 {
		return nil, appErr.ErrNoDocuments
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("documents", len(docs)))
	start := time.Now()

	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		txt, err := ExtractText(doc)
		if err != nil {
			logger.Warn("extract document failed", zap.String("name", doc.Name), zap.Error(err))
			return nil, err
		}
		texts = append(texts, txt)
	}
	raw := strings.Join(texts, "\n")
	pieces := p.splitter.Split(raw)
	if len(pieces) == 0 {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "no text could be extracted from the uploaded files")
	}

	chunks := make([]model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := p.embedder.Embed(ctx, piece, ai.TaskRetrievalDocument)
		if err != nil {
			logger.Error("embed chunk failed", zap.Int("position", i), zap.Error(err))
			return nil, fmt.Errorf("embed chunk %d: %w", i, appErr.Backend(err))
		}
		chunks = append(chunks, model.Chunk{Position: i, Content: piece, Embedding: vec})
	}

	p.processMu.Lock()
	err := p.index.Replace(ctx, chunks)
	p.processMu.Unlock()
	if err != nil {
		logger.Error("replace index failed", zap.Error(err))
		return nil, err
	}
	res := &ProcessResult{
		Documents:  len(docs),
		Characters: runeLen(raw),
		Chunks:     len(chunks),
		Elapsed:    time.Since(start).Milliseconds(),
	}
	logger.Info("documents processed", zap.Int("chunks", res.Chunks), zap.Int("characters", res.Characters))
	return res, nil
}

func (p *Pipeline) Query(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	if err := p.index.Ready(ctx); err != nil {
		return nil, err
	}
	vec, err := p.embedder.Embed(ctx, question, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", appErr.Backend(err))
	}
	matches, err := p.index.Search(ctx, vec, p.topK)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Content)
		sources = append(sources, Source{Position: m.Position, Score: m.Score})
	}
	text, err := p.answerer.AnswerFromContext(ctx, strings.Join(parts, "\n\n"), question)
	if err != nil {
		return nil, appErr.Backend(err)
	}
	logutil.GetLogger(ctx).Debug("document question answered", zap.Int("matches", len(matches)))
	return &Answer{Text: text, Sources: sources}, nil
}
