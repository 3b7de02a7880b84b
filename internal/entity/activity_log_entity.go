package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActivityLog struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid;index"`
	UserId         string
	Action         string
	Details        string
	CreatedAt      time.Time
}
