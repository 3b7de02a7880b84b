package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnRecord is the durable audit trail of one processed turn.
type TurnRecord struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CorrelationId  string
	OrganizationId uuid.UUID `gorm:"type:uuid;index"`
	BranchId       string
	Channel        string
	UserId         string
	Message        string
	Reply          string
	Stage          string
	Intent         string
	GuardName      string
	GuardReason    string
	RetrievalMode  string
	Confidence     float64
	TokensIn       int
	TokensOut      int
	CostSatang     int64
	LatencyMs      int64
	CreatedAt      time.Time
}
