package service

import (
	"context"
	"fmt"

	"clinic-assistant-be/internal/dto"
	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/internal/repository/specification"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/embedding"

	"github.com/google/uuid"
)

// IKnowledgeService maintains the clinic catalog and its embeddings. Staff
// only; customers never touch this surface.
type IKnowledgeService interface {
	UpsertService(ctx context.Context, organizationId uuid.UUID, request *dto.UpsertServiceRequest) (*dto.UpsertServiceResponse, error)
	ListServices(ctx context.Context, organizationId uuid.UUID) ([]*dto.ServiceResponse, error)
	DeleteService(ctx context.Context, organizationId uuid.UUID, serviceId uuid.UUID) error
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

// UpsertService writes the catalog entry and re-embeds its documents in one
// transaction, so search never sees a half-updated service.
func (ks *knowledgeService) UpsertService(ctx context.Context, organizationId uuid.UUID, request *dto.UpsertServiceRequest) (*dto.UpsertServiceResponse, error) {
	uow := ks.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svcRepo := uow.ClinicServiceRepository()

	svc, err := svcRepo.FindOne(ctx,
		specification.ByOrganization{OrganizationID: organizationId},
		specification.ByServiceName{Name: request.Name},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up service: %w", err)
	}

	if svc == nil {
		svc = &entity.ClinicService{
			Id:             uuid.New(),
			OrganizationId: organizationId,
		}
	}
	svc.Name = request.Name
	svc.Area = request.Area
	svc.PriceSatang = request.PriceSatang
	svc.Duration = request.Duration
	svc.Risks = request.Risks
	svc.Description = request.Description
	svc.Surgical = request.Surgical

	if err := svcRepo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to save service: %w", err)
	}

	embRepo := uow.KnowledgeEmbeddingRepository()
	if err := embRepo.DeleteByServiceId(ctx, svc.Id); err != nil {
		return nil, fmt.Errorf("failed to drop stale embeddings: %w", err)
	}

	var embeddings []*entity.KnowledgeEmbedding
	for i, doc := range request.Documents {
		if doc == "" {
			continue
		}
		res, err := ks.embeddingProvider.Generate(doc, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, fmt.Errorf("failed to embed document %d: %w", i, err)
		}

		price := svc.PriceSatang
		embeddings = append(embeddings, &entity.KnowledgeEmbedding{
			Id:             uuid.New(),
			OrganizationId: organizationId,
			ServiceId:      &svc.Id,
			Document:       doc,
			EmbeddingValue: res.Embedding.Values,
			Service:        svc.Name,
			Area:           svc.Area,
			PriceSatang:    &price,
			Duration:       svc.Duration,
			Risks:          svc.Risks,
			Description:    svc.Description,
			QualityScore:   request.QualityScore,
			ChunkIndex:     i,
		})
	}
	if len(embeddings) > 0 {
		if err := embRepo.CreateBulk(ctx, embeddings); err != nil {
			return nil, fmt.Errorf("failed to store embeddings: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	ks.logger.Info("KNOWLEDGE", "service upserted", map[string]interface{}{
		"organization_id": organizationId.String(),
		"service":         svc.Name,
		"chunks":          len(embeddings),
	})

	return &dto.UpsertServiceResponse{
		Id:             svc.Id,
		EmbeddedChunks: len(embeddings),
	}, nil
}

func (ks *knowledgeService) ListServices(ctx context.Context, organizationId uuid.UUID) ([]*dto.ServiceResponse, error) {
	uow := ks.uowFactory.NewUnitOfWork(ctx)

	services, err := uow.ClinicServiceRepository().FindAll(ctx,
		specification.ByOrganization{OrganizationID: organizationId},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	out := make([]*dto.ServiceResponse, len(services))
	for i, svc := range services {
		out[i] = &dto.ServiceResponse{
			Id:          svc.Id,
			Name:        svc.Name,
			Area:        svc.Area,
			PriceSatang: svc.PriceSatang,
			Duration:    svc.Duration,
			Surgical:    svc.Surgical,
			CreatedAt:   svc.CreatedAt,
		}
	}
	return out, nil
}

func (ks *knowledgeService) DeleteService(ctx context.Context, organizationId uuid.UUID, serviceId uuid.UUID) error {
	uow := ks.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	svc, err := uow.ClinicServiceRepository().FindOne(ctx,
		specification.ByID{ID: serviceId},
		specification.ByOrganization{OrganizationID: organizationId},
	)
	if err != nil {
		return fmt.Errorf("failed to look up service: %w", err)
	}
	if svc == nil {
		return fmt.Errorf("service not found")
	}

	if err := uow.KnowledgeEmbeddingRepository().DeleteByServiceId(ctx, serviceId); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if err := uow.ClinicServiceRepository().Delete(ctx, serviceId); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	return uow.Commit()
}
