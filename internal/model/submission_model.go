package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Submissions are never physically deleted; moderation only changes Status.
type Submission struct {
	Id                uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content           string           `gorm:"type:text;not null"`
	NormalizedContent string           `gorm:"type:text;not null"`
	Region            string           `gorm:"type:varchar(50);not null;index"`
	Age               *int             `gorm:"check:age IS NULL OR (age BETWEEN 13 AND 120)"`
	Occupation        *string          `gorm:"type:varchar(100)"`
	Language          string           `gorm:"type:varchar(3);not null;default:'en'"`
	Channel           string           `gorm:"type:varchar(10);not null;default:'web'"`
	Embedding         *pgvector.Vector `gorm:"type:vector"`
	EmbeddingModel    string           `gorm:"type:varchar(100);index"`
	Status            string           `gorm:"type:varchar(20);not null;default:'pending';index"`
	ClusterId         *uuid.UUID       `gorm:"type:uuid;index"`
	Cluster           *Cluster         `gorm:"foreignKey:ClusterId;constraint:OnDelete:SET NULL;"`
	ReviewedAt        *time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Submission) TableName() string {
	return "submissions"
}
