package implementation

import (
	"context"
	"errors"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/mapper"
	"clinic-assistant-be/internal/model"
	"clinic-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CustomerProfileMapper
}

func NewCustomerProfileRepository(db *gorm.DB) contract.CustomerProfileRepository {
	return &CustomerProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewCustomerProfileMapper(),
	}
}

func (r *CustomerProfileRepositoryImpl) Upsert(ctx context.Context, profile *entity.CustomerProfile) error {
	m := r.mapper.ToModel(profile)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"},
			{Name: "channel"},
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"preferences", "summary", "last_seen_at", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*profile = *r.mapper.ToEntity(m)
	return nil
}

func (r *CustomerProfileRepositoryImpl) FindByIdentity(ctx context.Context, organizationId uuid.UUID, channel string, userId string) (*entity.CustomerProfile, error) {
	var m model.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationId).
		Where("channel = ?", channel).
		Where("user_id = ?", userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
