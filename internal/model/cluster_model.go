package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Cluster struct {
	Id               uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Label            string                      `gorm:"type:varchar(200);not null"`
	Summary          string                      `gorm:"type:text"`
	Keywords         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	LabelMethod      string                      `gorm:"type:varchar(20)"`
	Centroid         pgvector.Vector             `gorm:"type:vector"`
	RepresentativeId *uuid.UUID                  `gorm:"type:uuid"`
	MemberCount      int                         `gorm:"not null;default:0"`
	Cohesion         float64                     `gorm:"not null;default:0"`
	Version          int                         `gorm:"not null;default:1"`
	Status           string                      `gorm:"type:varchar(20);not null;default:'active';index"`
	EmbeddingModel   string                      `gorm:"type:varchar(100)"`
	Language         string                      `gorm:"type:varchar(3);not null;default:'en'"`
	RunId            *uuid.UUID                  `gorm:"type:uuid;index"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (Cluster) TableName() string {
	return "clusters"
}
