package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpsertServiceRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Area        string `json:"area" validate:"omitempty,max=100"`
	PriceSatang int64  `json:"price_satang" validate:"gte=0"`
	Duration    string `json:"duration" validate:"omitempty,max=100"`
	Risks       string `json:"risks"`
	Description string `json:"description"`
	Surgical    bool   `json:"surgical"`

	// Documents are chunked and embedded on ingest.
	Documents    []string `json:"documents" validate:"max=50"`
	QualityScore float64  `json:"quality_score" validate:"gte=0,lte=1"`
}

type UpsertServiceResponse struct {
	Id             uuid.UUID `json:"id"`
	EmbeddedChunks int       `json:"embedded_chunks"`
}

type ServiceResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Area        string    `json:"area"`
	PriceSatang int64     `json:"price_satang"`
	Duration    string    `json:"duration"`
	Surgical    bool      `json:"surgical"`
	CreatedAt   time.Time `json:"created_at"`
}
