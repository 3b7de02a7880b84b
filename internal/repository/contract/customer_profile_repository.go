package contract

import (
	"context"

	"clinic-assistant-be/internal/entity"

	"github.com/google/uuid"
)

type CustomerProfileRepository interface {
	// Upsert creates the profile on first contact and updates it afterwards,
	// keyed by (organization, channel, user).
	Upsert(ctx context.Context, profile *entity.CustomerProfile) error
	FindByIdentity(ctx context.Context, organizationId uuid.UUID, channel string, userId string) (*entity.CustomerProfile, error)
}
