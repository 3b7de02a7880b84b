package mapper

import (
	"encoding/json"
	"time"

	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/model"
)

type CustomerProfileMapper struct{}

func NewCustomerProfileMapper() *CustomerProfileMapper {
	return &CustomerProfileMapper{}
}

func (m *CustomerProfileMapper) ToEntity(e *model.CustomerProfile) *entity.CustomerProfile {
	if e == nil {
		return nil
	}

	prefs := map[string]string{}
	if e.Preferences != "" {
		// Preferences live in a jsonb column; an unreadable blob is treated
		// as empty instead of failing the lookup.
		_ = json.Unmarshal([]byte(e.Preferences), &prefs)
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.CustomerProfile{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		Channel:        e.Channel,
		UserId:         e.UserId,
		Preferences:    prefs,
		Summary:        e.Summary,
		LastSeenAt:     e.LastSeenAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *CustomerProfileMapper) ToModel(e *entity.CustomerProfile) *model.CustomerProfile {
	if e == nil {
		return nil
	}

	prefs := "{}"
	if len(e.Preferences) > 0 {
		if raw, err := json.Marshal(e.Preferences); err == nil {
			prefs = string(raw)
		}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.CustomerProfile{
		Id:             e.Id,
		OrganizationId: e.OrganizationId,
		Channel:        e.Channel,
		UserId:         e.UserId,
		Preferences:    prefs,
		Summary:        e.Summary,
		LastSeenAt:     e.LastSeenAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
