package implementation

import (
	"context"
	"errors"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/mapper"
	"clinic-assistant-be/internal/model"
	"clinic-assistant-be/internal/repository/contract"
	"clinic-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type TurnRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TurnRecordMapper
}

func NewTurnRecordRepository(db *gorm.DB) contract.TurnRecordRepository {
	return &TurnRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewTurnRecordMapper(),
	}
}

func (r *TurnRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TurnRecordRepositoryImpl) Create(ctx context.Context, record *entity.TurnRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *TurnRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TurnRecord, error) {
	var m model.TurnRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TurnRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TurnRecord, error) {
	var models []*model.TurnRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TurnRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.TurnRecord{}).Count(&count).Error
	return count, err
}
