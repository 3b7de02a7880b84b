package retrieval

import (
	"context"
	"fmt"
	"log"

	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/embedding"

	"github.com/google/uuid"
)

// Searcher runs vector search over the clinic knowledge base and grades the
// result set into a retrieval mode.
type Searcher struct {
	embeddingProvider embedding.EmbeddingProvider
	engine            *ConfidenceEngine
	logger            *log.Logger
}

func NewSearcher(embeddingProvider embedding.EmbeddingProvider, engine *ConfidenceEngine, logger *log.Logger) *Searcher {
	return &Searcher{
		embeddingProvider: embeddingProvider,
		engine:            engine,
		logger:            logger,
	}
}

// Config encapsulates search parameters
type Config struct {
	DBThreshold float64
	TopK        int
}

// DefaultConfig returns default search configuration
func DefaultConfig() Config {
	return Config{
		DBThreshold: 0.0,
		TopK:        5,
	}
}

// Execute embeds the query, runs the organization-scoped vector search and
// returns the graded assessment. An empty result set comes back as an
// abstain assessment, not an error.
func (s *Searcher) Execute(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	organizationId uuid.UUID,
	query string,
	config Config,
) (*Assessment, error) {

	embeddingRes, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	scoredResults, err := uow.KnowledgeEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		config.TopK,
		organizationId,
		config.DBThreshold,
	)
	if err != nil {
		s.logger.Printf("[ERROR] Vector search failed: %v", err)
		return nil, err
	}

	s.logger.Printf("[DEBUG] Raw search results: %d documents", len(scoredResults))

	hits := make([]Hit, 0, len(scoredResults))
	for _, res := range scoredResults {
		hits = append(hits, Hit{
			ID:       res.Embedding.Id.String(),
			Score:    res.Similarity,
			Metadata: res.Embedding.Metadata(),
			Document: res.Embedding.Document,
		})
	}

	assessment := s.engine.Assess(hits)
	s.logger.Printf("[DEBUG] Retrieval confidence=%.4f mode=%s", assessment.Confidence, assessment.Mode)

	return &assessment, nil
}
