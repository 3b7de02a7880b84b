package mapper

import (
	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/model"
)

type TurnRecordMapper struct{}

func NewTurnRecordMapper() *TurnRecordMapper {
	return &TurnRecordMapper{}
}

func (m *TurnRecordMapper) ToEntity(e *model.TurnRecord) *entity.TurnRecord {
	if e == nil {
		return nil
	}
	return &entity.TurnRecord{
		Id:             e.Id,
		CorrelationId:  e.CorrelationId,
		OrganizationId: e.OrganizationId,
		BranchId:       e.BranchId,
		Channel:        e.Channel,
		UserId:         e.UserId,
		Message:        e.Message,
		Reply:          e.Reply,
		Stage:          e.Stage,
		Intent:         e.Intent,
		GuardName:      e.GuardName,
		GuardReason:    e.GuardReason,
		RetrievalMode:  e.RetrievalMode,
		Confidence:     e.Confidence,
		TokensIn:       e.TokensIn,
		TokensOut:      e.TokensOut,
		CostSatang:     e.CostSatang,
		LatencyMs:      e.LatencyMs,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *TurnRecordMapper) ToModel(e *entity.TurnRecord) *model.TurnRecord {
	if e == nil {
		return nil
	}
	return &model.TurnRecord{
		Id:             e.Id,
		CorrelationId:  e.CorrelationId,
		OrganizationId: e.OrganizationId,
		BranchId:       e.BranchId,
		Channel:        e.Channel,
		UserId:         e.UserId,
		Message:        e.Message,
		Reply:          e.Reply,
		Stage:          e.Stage,
		Intent:         e.Intent,
		GuardName:      e.GuardName,
		GuardReason:    e.GuardReason,
		RetrievalMode:  e.RetrievalMode,
		Confidence:     e.Confidence,
		TokensIn:       e.TokensIn,
		TokensOut:      e.TokensOut,
		CostSatang:     e.CostSatang,
		LatencyMs:      e.LatencyMs,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *TurnRecordMapper) ToEntities(records []*model.TurnRecord) []*entity.TurnRecord {
	entities := make([]*entity.TurnRecord, len(records))
	for i, e := range records {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
