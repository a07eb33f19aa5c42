package model

type EmbeddingState string

const (
	EmbeddingEmbedded EmbeddingState = "embedded"
	EmbeddingFailed   EmbeddingState = "failed"
	EmbeddingSkipped  EmbeddingState = "skipped"
)

// Embedding is the outcome of one embedding call. Vector is set only when
// State is EmbeddingEmbedded.
type Embedding struct {
	State  EmbeddingState `json:"state"`
	Vector []float32      `json:"-"`
}

func Embedded(vec []float32) Embedding {
	return Embedding{State: EmbeddingEmbedded, Vector: vec}
}

func FailedEmbedding() Embedding {
	return Embedding{State: EmbeddingFailed}
}

func SkippedEmbedding() Embedding {
	return Embedding{State: EmbeddingSkipped}
}

func (e Embedding) OK() bool {
	return e.State == EmbeddingEmbedded && len(e.Vector) > 0
}

type FileEmbedding struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"project_id"`
	FileName       string         `json:"file_name"`
	SourceCode     string         `json:"source_code"`
	Summary        string         `json:"summary"`
	EmbeddingState EmbeddingState `json:"embedding_state"`
	Embedding      []float32      `json:"-"`
	Ctime          int64          `json:"ctime"`
	Mtime          int64          `json:"mtime"`
}
