package unitofwork

import (
	"context"

	"clinic-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ClinicServiceRepository() contract.ClinicServiceRepository
	KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository
	TurnRecordRepository() contract.TurnRecordRepository
	ActivityLogRepository() contract.ActivityLogRepository
	CustomerProfileRepository() contract.CustomerProfileRepository
}
