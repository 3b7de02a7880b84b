package mapper

import (
	"time"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/model"

	"gorm.io/gorm"
)

type ClinicServiceMapper struct{}

func NewClinicServiceMapper() *ClinicServiceMapper {
	return &ClinicServiceMapper{}
}

func (m *ClinicServiceMapper) ToEntity(e *model.ClinicService) *entity.ClinicService {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.ClinicService{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		Name:           e.Name,
		Area:           e.Area,
		PriceSatang:    e.PriceSatang,
		Duration:       e.Duration,
		Risks:          e.Risks,
		Description:    e.Description,
		Surgical:       e.Surgical,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *ClinicServiceMapper) ToModel(e *entity.ClinicService) *model.ClinicService {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.ClinicService{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		Name:           e.Name,
		Area:           e.Area,
		PriceSatang:    e.PriceSatang,
		Duration:       e.Duration,
		Risks:          e.Risks,
		Description:    e.Description,
		Surgical:       e.Surgical,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *ClinicServiceMapper) ToEntities(services []*model.ClinicService) []*entity.ClinicService {
	entities := make([]*entity.ClinicService, len(services))
	for i, e := range services {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
