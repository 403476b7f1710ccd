package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// FallbackAnswer is what the answer prompt asks the model to say when the context has nothing relevant.
const FallbackAnswer = "Sorry, Please Try Again :) "

const qaPromptTemplate = `Answer the questions to the best of your abilities from the provided content, making sure to provide details.
If the answer is not available, simply say "%s" without guessing.

Context:
%s?

Question:
%s

Answer:
`

// BuildQAPrompt renders the document question prompt.
func BuildQAPrompt(contextText, question string) string {
	return fmt.Sprintf(qaPromptTemplate, FallbackAnswer, contextText, question)
}

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

type Manager struct {
	chat     IGenerator
	vision   IVisionGenerator
	answerer IGenerator
	embedder IEmbedder
	cfg      ManagerConfig
}

func NewManager(
	chat IGenerator,
	vision IVisionGenerator,
	answerer IGenerator,
	embedder IEmbedder,
	cfg ManagerConfig,
) *Manager {
	return &Manager{
		chat:     chat,
		vision:   vision,
		answerer: answerer,
		embedder: embedder,
		cfg:      cfg,
	}
}

func (m *Manager) Chat(ctx context.Context, prompt string) (string, error) {
	if m.chat == nil {
		return "", fmt.Errorf("chat generator: %w", ErrUnavailable)
	}
	prompt, err := m.checkInput(prompt)
	if err != nil {
		return "", err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return finishText(m.chat.Generate(ctx, prompt))
}

// AnalyzeImage sends the image with an optional prompt; an empty prompt asks for a plain description.
func (m *Manager) AnalyzeImage(ctx context.Context, prompt string, img *ImageInput) (string, error) {
	if m.vision == nil {
		return "", fmt.Errorf("vision generator: %w", ErrUnavailable)
	}
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("image is required")
	}
	prompt, err := m.checkInput(prompt)
	if err != nil {
		return "", err
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return finishText(m.vision.GenerateWithImage(ctx, prompt, img))
}

func (m *Manager) AnswerFromContext(ctx context.Context, contextText, question string) (string, error) {
	if m.answerer == nil {
		return "", fmt.Errorf("answer generator: %w", ErrUnavailable)
	}
	if m.cfg.MaxInputChars > 0 {
		if runes := []rune(contextText); len(runes) > m.cfg.MaxInputChars {
			contextText = string(runes[:m.cfg.MaxInputChars])
		}
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return finishText(m.answerer.Generate(ctx, BuildQAPrompt(contextText, question)))
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder: %w", ErrUnavailable)
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
	}
	return ctx, func() {}
}

func (m *Manager) checkInput(text string) (string, error) {
	if m.cfg.MaxInputChars > 0 && len([]rune(text)) > m.cfg.MaxInputChars {
		return "", appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("Input is limited to %d characters.", m.cfg.MaxInputChars))
	}
	return text, nil
}

func finishText(resp string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	// The fallback reply is shown verbatim, trailing space included.
	if text == strings.TrimSpace(FallbackAnswer) {
		return FallbackAnswer, nil
	}
	return text, nil
}
