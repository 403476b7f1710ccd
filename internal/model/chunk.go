package model

// Chunk is one overlapping window of extracted document text.
type Chunk struct {
	Position  int       `json:"position"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}
