package contract

import (
	"context"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/repository/specification"
)

type TurnRecordRepository interface {
	Create(ctx context.Context, record *entity.TurnRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
