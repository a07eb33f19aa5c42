package service

import (
	"context"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/embedcache"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type RetrievedFile struct {
	FileName   string  `json:"file_name"`
	SourceCode string  `json:"source_code"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}

type RetrievalService struct {
	files         fileEmbeddingStore
	embedder      embedcache.QueryEmbedder
	topK          int
	minSimilarity float64
}

func NewRetrievalService(files fileEmbeddingStore, embedder embedcache.QueryEmbedder, topK int, minSimilarity float64) *RetrievalService {
	return &RetrievalService{files: files, embedder: embedder, topK: topK, minSimilarity: minSimilarity}
}

// Retrieve ranks the project's embedded files by cosine similarity to the
// question. topK <= 0 uses the configured default.
func (s *RetrievalService) Retrieve(ctx context.Context, question, projectID string, topK int) ([]RetrievedFile, error) {
	if topK <= 0 {
		topK = s.topK
	}
	emb := s.embedder.EmbedQuery(ctx, question)
	if !emb.OK() {
		return nil, appErr.ErrEmbeddingUnavailable
	}
	rows, err := s.files.ListEmbedded(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]RetrievedFile, 0, len(rows))
	for _, row := range rows {
		score := cosineSimilarity(emb.Vector, row.Embedding)
		if score < s.minSimilarity {
			continue
		}
		out = append(out, RetrievedFile{
			FileName:   row.FileName,
			SourceCode: row.SourceCode,
			Summary:    row.Summary,
			Similarity: score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	logutil.GetLogger(ctx).Debug("retrieval finished",
		zap.String("project_id", projectID),
		zap.Int("candidates", len(rows)),
		zap.Int("matched", len(out)),
	)
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
