package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/repository/contract"
	"clinic-assistant-be/internal/repository/specification"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingProvider struct {
	values []float32
	err    error
}

func (p *fakeEmbeddingProvider) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: p.values},
	}, nil
}

type fakeKnowledgeRepo struct {
	scored []*contract.ScoredKnowledgeEmbedding
	err    error
}

func (r *fakeKnowledgeRepo) Create(context.Context, *entity.KnowledgeEmbedding) error { return nil }

func (r *fakeKnowledgeRepo) CreateBulk(context.Context, []*entity.KnowledgeEmbedding) error {
	return nil
}

func (r *fakeKnowledgeRepo) Update(context.Context, *entity.KnowledgeEmbedding) error { return nil }

func (r *fakeKnowledgeRepo) Delete(context.Context, uuid.UUID) error { return nil }

func (r *fakeKnowledgeRepo) DeleteByServiceId(context.Context, uuid.UUID) error { return nil }

func (r *fakeKnowledgeRepo) FindOne(context.Context, ...specification.Specification) (*entity.KnowledgeEmbedding, error) {
	return nil, nil
}

func (r *fakeKnowledgeRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.KnowledgeEmbedding, error) {
	return nil, nil
}

func (r *fakeKnowledgeRepo) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}

func (r *fakeKnowledgeRepo) SearchSimilarWithScore(context.Context, []float32, int, uuid.UUID, float64) ([]*contract.ScoredKnowledgeEmbedding, error) {
	return r.scored, r.err
}

type fakeSearchUOW struct {
	knowledge *fakeKnowledgeRepo
}

func (u *fakeSearchUOW) Begin(context.Context) error { return nil }

func (u *fakeSearchUOW) Commit() error { return nil }

func (u *fakeSearchUOW) Rollback() error { return nil }

func (u *fakeSearchUOW) ClinicServiceRepository() contract.ClinicServiceRepository { return nil }

func (u *fakeSearchUOW) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return u.knowledge
}

func (u *fakeSearchUOW) TurnRecordRepository() contract.TurnRecordRepository { return nil }

func (u *fakeSearchUOW) ActivityLogRepository() contract.ActivityLogRepository { return nil }

func (u *fakeSearchUOW) CustomerProfileRepository() contract.CustomerProfileRepository { return nil }

var _ unitofwork.UnitOfWork = (*fakeSearchUOW)(nil)

func completeChunk() *entity.KnowledgeEmbedding {
	price := int64(450000)
	return &entity.KnowledgeEmbedding{
		Id:           uuid.New(),
		Service:      "botox",
		Area:         "face",
		PriceSatang:  &price,
		Duration:     "30 minutes",
		Risks:        "temporary bruising",
		Description:  "smooths fine lines",
		QualityScore: 0.9,
		Document:     "botox face pricing",
	}
}

func newTestSearcher(provider embedding.EmbeddingProvider) *Searcher {
	engine := NewConfidenceEngine(DefaultThresholds())
	return NewSearcher(provider, engine, log.New(io.Discard, "", 0))
}

func TestSearcherExecuteGradesHits(t *testing.T) {
	uow := &fakeSearchUOW{knowledge: &fakeKnowledgeRepo{
		scored: []*contract.ScoredKnowledgeEmbedding{
			{Embedding: completeChunk(), Similarity: 0.95},
		},
	}}
	s := newTestSearcher(&fakeEmbeddingProvider{values: []float32{0.1, 0.2}})

	assessment, err := s.Execute(context.Background(), uow, uuid.New(), "how much is botox", DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, assessment)

	assert.Equal(t, ModeFull, assessment.Mode)
	assert.InDelta(t, 0.95, assessment.Confidence, 0.001)
	require.Len(t, assessment.Hits, 1)
	assert.Equal(t, "botox", assessment.Hits[0].Metadata["service"])
}

func TestSearcherExecuteEmptyResultAbstains(t *testing.T) {
	uow := &fakeSearchUOW{knowledge: &fakeKnowledgeRepo{}}
	s := newTestSearcher(&fakeEmbeddingProvider{values: []float32{0.1}})

	assessment, err := s.Execute(context.Background(), uow, uuid.New(), "anything", DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, assessment)

	assert.Equal(t, ModeAbstain, assessment.Mode)
	assert.Zero(t, assessment.Confidence)
	assert.Empty(t, assessment.Hits)
}

func TestSearcherExecutePropagatesErrors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		uow := &fakeSearchUOW{knowledge: &fakeKnowledgeRepo{}}
		s := newTestSearcher(&fakeEmbeddingProvider{err: errors.New("provider down")})

		assessment, err := s.Execute(context.Background(), uow, uuid.New(), "q", DefaultConfig())
		assert.Error(t, err)
		assert.Nil(t, assessment)
	})

	t.Run("search failure", func(t *testing.T) {
		uow := &fakeSearchUOW{knowledge: &fakeKnowledgeRepo{err: errors.New("db down")}}
		s := newTestSearcher(&fakeEmbeddingProvider{values: []float32{0.1}})

		assessment, err := s.Execute(context.Background(), uow, uuid.New(), "q", DefaultConfig())
		assert.Error(t, err)
		assert.Nil(t, assessment)
	})
}
