package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServiceId      *uuid.UUID      `gorm:"type:uuid;index"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	Service        string          `gorm:"type:varchar(255)"`
	Area           string          `gorm:"type:varchar(100)"`
	PriceSatang    *int64
	Duration       string         `gorm:"type:varchar(100)"`
	Risks          string         `gorm:"type:text"`
	Description    string         `gorm:"type:text"`
	QualityScore   float64        `gorm:"default:0"` // curation score in [0,1]
	ChunkIndex     int            `gorm:"default:0"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (KnowledgeEmbedding) TableName() string {
	return "knowledge_embeddings"
}
