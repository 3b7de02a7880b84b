package contract

import (
	"context"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ClinicServiceRepository interface {
	Create(ctx context.Context, service *entity.ClinicService) error
	Update(ctx context.Context, service *entity.ClinicService) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClinicService, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClinicService, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
