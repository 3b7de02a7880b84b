package mapper

import (
	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/model"
)

type ActivityLogMapper struct{}

func NewActivityLogMapper() *ActivityLogMapper {
	return &ActivityLogMapper{}
}

func (m *ActivityLogMapper) ToEntity(e *model.ActivityLog) *entity.ActivityLog {
	if e == nil {
		return nil
	}
	return &entity.ActivityLog{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		UserId:         e.UserId,
		Action:         e.Action,
		Details:        e.Details,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ActivityLogMapper) ToModel(e *entity.ActivityLog) *model.ActivityLog {
	if e == nil {
		return nil
	}
	return &model.ActivityLog{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		UserId:         e.UserId,
		Action:         e.Action,
		Details:        e.Details,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ActivityLogMapper) ToEntities(logs []*model.ActivityLog) []*entity.ActivityLog {
	entities := make([]*entity.ActivityLog, len(logs))
	for i, e := range logs {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
