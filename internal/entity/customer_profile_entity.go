package entity

import (
	"time"

	"github.com/google/uuid"
)

// CustomerProfile is the long-lived memory for one end user: preferences
// accumulated across sessions plus a short rolling summary the analytics
// profile agent maintains.
type CustomerProfile struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid;index"`
	Channel        string
	UserId         string
	Preferences    map[string]string
	Summary        string
	LastSeenAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
