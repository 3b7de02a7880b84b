package model

import (
	"time"

	"github.com/google/uuid"
)

type TurnRecord struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CorrelationId  string    `gorm:"type:varchar(64);index"`
	OrganizationId uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchId       string    `gorm:"type:varchar(64)"`
	Channel        string    `gorm:"type:varchar(32)"`
	UserId         string    `gorm:"type:varchar(128);index"`
	Message        string    `gorm:"type:text"`
	Reply          string    `gorm:"type:text"`
	Stage          string    `gorm:"type:varchar(32)"`
	Intent         string    `gorm:"type:varchar(32)"`
	GuardName      string    `gorm:"type:varchar(64)"`
	GuardReason    string    `gorm:"type:varchar(64)"`
	RetrievalMode  string    `gorm:"type:varchar(16)"`
	Confidence     float64
	TokensIn       int
	TokensOut      int
	CostSatang     int64
	LatencyMs      int64
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
}

func (TurnRecord) TableName() string {
	return "turn_records"
}
