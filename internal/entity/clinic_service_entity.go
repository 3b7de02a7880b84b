package entity

import (
	"time"

	"github.com/google/uuid"
)

type ClinicService struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid;index"`
	Name           string
	Area           string
	PriceSatang    int64
	Duration       string
	Risks          string
	Description    string
	Surgical       bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
