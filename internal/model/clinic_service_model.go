package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicService struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name           string         `gorm:"type:varchar(255);not null"`
	Area           string         `gorm:"type:varchar(100)"`
	PriceSatang    int64          `gorm:"not null;default:0"`
	Duration       string         `gorm:"type:varchar(100)"`
	Risks          string         `gorm:"type:text"`
	Description    string         `gorm:"type:text"`
	Surgical       bool           `gorm:"default:false"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ClinicService) TableName() string {
	return "clinic_services"
}
