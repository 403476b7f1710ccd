package docqa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

func TestSplitterShortText(t *testing.T) {
	s := NewSplitter(100, 10)
	require.Equal(t, []string{"hello world"}, s.Split("hello world"))
	require.Nil(t, s.Split("   \n "))
}

func TestSplitterRespectsSizeAndOverlap(t *testing.T) {
	words := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")
	s := NewSplitter(50, 10)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, runeLen(c), 50)
	}
	// Neighbouring chunks share a tail of whole words.
	require.True(t, strings.HasSuffix(chunks[0], "word word"))
	require.True(t, strings.HasPrefix(chunks[1], "word word"))
}

func TestSplitterPrefersParagraphs(t *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + "\n\n" + strings.Repeat("c", 30)
	chunks := NewSplitter(40, 0).Split(text)
	require.Equal(t, []string{strings.Repeat("a", 30), strings.Repeat("b", 30), strings.Repeat("c", 30)}, chunks)
}

func TestSplitterFallsBackToCharacters(t *testing.T) {
	chunks := NewSplitter(10, 2).Split(strings.Repeat("x", 25))
	require.Greater(t, len(chunks), 2)
	for _, c := range chunks {
		require.LessOrEqual(t, runeLen(c), 10)
	}
}

func TestSplitterCountsRunes(t *testing.T) {
	chunks := NewSplitter(5, 0).Split("你好世界啊")
	require.Equal(t, []string{"你好世界啊"}, chunks)
}

func TestExtractText(t *testing.T) {
	txt, err := ExtractText(Document{Name: "a.txt", Data: []byte("plain")})
	require.NoError(t, err)
	require.Equal(t, "plain", txt)

	md, err := ExtractText(Document{Name: "a.md", Data: []byte("# Title\n\nSome *bold* text.\n\n```go\nx := 1\n```\n")})
	require.NoError(t, err)
	require.Equal(t, "Title\n\nSome bold text.\n\nx := 1", md)

	_, err = ExtractText(Document{Name: "a.exe", Data: []byte("x")})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = ExtractText(Document{Name: "a.pdf", Data: []byte("not a pdf")})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

type fakeEmbedder struct {
	tasks []string
	err   error
}

// Embeds on two axes: mentions of "cat" and mentions of "dog".
func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.tasks = append(f.tasks, taskType)
	if f.err != nil {
		return nil, f.err
	}
	lower := strings.ToLower(text)
	return []float32{float32(strings.Count(lower, "cat")) + 0.01, float32(strings.Count(lower, "dog")) + 0.01}, nil
}

type fakeAnswerer struct {
	contextText string
	question    string
}

func (f *fakeAnswerer) AnswerFromContext(ctx context.Context, contextText, question string) (string, error) {
	f.contextText = contextText
	f.question = question
	return "answer", nil
}

type memIndex struct {
	chunks []model.Chunk
}

func (m *memIndex) Replace(ctx context.Context, chunks []model.Chunk) error {
	m.chunks = chunks
	return nil
}

func (m *memIndex) Ready(ctx context.Context) error {
	if len(m.chunks) == 0 {
		return appErr.ErrNoIndex
	}
	return nil
}

func (m *memIndex) Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error) {
	if len(m.chunks) == 0 {
		return nil, appErr.ErrNoIndex
	}
	var out []model.ScoredChunk
	for _, c := range m.chunks {
		out = append(out, model.ScoredChunk{Chunk: c, Score: query[0]*c.Embedding[0] + query[1]*c.Embedding[1]})
	}
	if best := out[0]; len(out) > 1 && out[1].Score > best.Score {
		out[0], out[1] = out[1], out[0]
	}
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func TestPipelineQueryBeforeProcess(t *testing.T) {
	p := NewPipeline(Config{ChunkSize: 100, ChunkOverlap: 10, TopK: 1}, &fakeEmbedder{}, &fakeAnswerer{}, &memIndex{})
	_, err := p.Query(context.Background(), "anything?")
	require.ErrorIs(t, err, appErr.ErrNoIndex)
}

func TestPipelineQueryChecksIndexBeforeEmbedding(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("no api key")}
	p := NewPipeline(Config{ChunkSize: 100, ChunkOverlap: 10, TopK: 1}, emb, &fakeAnswerer{}, &memIndex{})
	_, err := p.Query(context.Background(), "What is the capital of France?")
	require.ErrorIs(t, err, appErr.ErrNoIndex)
	require.NotErrorIs(t, err, appErr.ErrBackend)
	require.Empty(t, emb.tasks)
}

func TestPipelineProcessAndQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	ans := &fakeAnswerer{}
	idx := &memIndex{}
	p := NewPipeline(Config{ChunkSize: 40, ChunkOverlap: 0, TopK: 1}, emb, ans, idx)

	res, err := p.Process(context.Background(), []Document{
		{Name: "cats.txt", Data: []byte("The cat sat. A cat purred loudly.")},
		{Name: "dogs.md", Data: []byte("Dogs bark and the dog runs.")},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Documents)
	require.Equal(t, 2, res.Chunks)
	for _, task := range emb.tasks {
		require.Equal(t, ai.TaskRetrievalDocument, task)
	}

	answer, err := p.Query(context.Background(), "what does the dog do?")
	require.NoError(t, err)
	require.Equal(t, "answer", answer.Text)
	require.Len(t, answer.Sources, 1)
	require.Equal(t, 1, answer.Sources[0].Position)
	require.Equal(t, "Dogs bark and the dog runs.", ans.contextText)
	require.Equal(t, "what does the dog do?", ans.question)
	require.Equal(t, ai.TaskRetrievalQuery, emb.tasks[len(emb.tasks)-1])
}

func TestPipelineProcessErrors(t *testing.T) {
	idx := &memIndex{}
	p := NewPipeline(Config{ChunkSize: 100, ChunkOverlap: 10}, &fakeEmbedder{}, &fakeAnswerer{}, idx)
	_, err := p.Process(context.Background(), nil)
	require.ErrorIs(t, err, appErr.ErrNoDocuments)

	_, err = p.Process(context.Background(), []Document{{Name: "empty.txt", Data: []byte("  ")}})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	failing := NewPipeline(Config{ChunkSize: 100, ChunkOverlap: 10}, &fakeEmbedder{err: errors.New("quota")}, &fakeAnswerer{}, idx)
	_, err = failing.Process(context.Background(), []Document{{Name: "a.txt", Data: []byte("text")}})
	require.Error(t, err)
	require.Empty(t, idx.chunks)
}
