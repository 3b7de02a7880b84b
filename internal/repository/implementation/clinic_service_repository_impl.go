package implementation

import (
	"context"
	"errors"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/mapper"
	"clinic-assistant-be/internal/model"
	"clinic-assistant-be/internal/repository/contract"
	"clinic-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicServiceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClinicServiceMapper
}

func NewClinicServiceRepository(db *gorm.DB) contract.ClinicServiceRepository {
	return &ClinicServiceRepositoryImpl{
		db:     db,
		mapper: mapper.NewClinicServiceMapper(),
	}
}

func (r *ClinicServiceRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ClinicServiceRepositoryImpl) Create(ctx context.Context, service *entity.ClinicService) error {
	m := r.mapper.ToModel(service)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*service = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClinicServiceRepositoryImpl) Update(ctx context.Context, service *entity.ClinicService) error {
	m := r.mapper.ToModel(service)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*service = *r.mapper.ToEntity(m)
	return nil
}

func (r *ClinicServiceRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ClinicService{}, id).Error
}

func (r *ClinicServiceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClinicService, error) {
	var m model.ClinicService
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ClinicServiceRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClinicService, error) {
	var models []*model.ClinicService
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ClinicServiceRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ClinicService{}).Count(&count).Error
	return count, err
}
