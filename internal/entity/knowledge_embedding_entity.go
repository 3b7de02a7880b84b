package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEmbedding is one retrievable chunk of clinic knowledge. The
// structured fields mirror what the answer layer is allowed to quote, so
// a chunk with gaps lowers retrieval completeness for the whole turn.
type KnowledgeEmbedding struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationId uuid.UUID `gorm:"type:uuid;index"`
	ServiceId      *uuid.UUID
	Document       string
	EmbeddingValue []float32
	Service        string
	Area           string
	PriceSatang    *int64
	Duration       string
	Risks          string
	Description    string
	QualityScore   float64
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// Metadata flattens the structured fields into the shape the confidence
// scorer inspects for completeness.
func (e *KnowledgeEmbedding) Metadata() map[string]interface{} {
	md := map[string]interface{}{}
	if e.Service != "" {
		md["service"] = e.Service
	}
	if e.Area != "" {
		md["area"] = e.Area
	}
	if e.PriceSatang != nil {
		md["price_satang"] = *e.PriceSatang
	}
	if e.Duration != "" {
		md["duration"] = e.Duration
	}
	if e.Risks != "" {
		md["risks"] = e.Risks
	}
	if e.Description != "" {
		md["description"] = e.Description
	}
	if e.QualityScore > 0 {
		md["quality_score"] = e.QualityScore
	}
	return md
}
