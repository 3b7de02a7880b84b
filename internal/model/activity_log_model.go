package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityLog struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId         string    `gorm:"type:varchar(128);index"`
	Action         string    `gorm:"type:varchar(64);not null"`
	Details        string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
