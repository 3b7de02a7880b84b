package model

import (
	"time"

	"github.com/google/uuid"
)

type CustomerProfile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_profile_identity"`
	Channel        string    `gorm:"type:varchar(32);uniqueIndex:idx_profile_identity"`
	UserId         string    `gorm:"type:varchar(128);uniqueIndex:idx_profile_identity"`
	Preferences    string    `gorm:"type:jsonb;default:'{}'"`
	Summary        string    `gorm:"type:text"`
	LastSeenAt     time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (CustomerProfile) TableName() string {
	return "customer_profiles"
}
