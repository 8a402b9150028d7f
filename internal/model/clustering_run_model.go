package model

import (
	"time"

	"github.com/google/uuid"
)

type ClusteringRun struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Mode                 string    `gorm:"type:varchar(20);not null"`
	ModelVersion         string    `gorm:"type:varchar(100);not null"`
	Status               string    `gorm:"type:varchar(20);not null;index"`
	ClustersCreated      int       `gorm:"not null;default:0"`
	ClustersUpdated      int       `gorm:"not null;default:0"`
	ClustersRetired      int       `gorm:"not null;default:0"`
	SubmissionsProcessed int       `gorm:"not null;default:0"`
	Unclustered          int       `gorm:"not null;default:0"`
	EmbeddingFailures    int       `gorm:"not null;default:0"`
	Error                *string   `gorm:"type:text"`
	StartedAt            time.Time `gorm:"not null;index"`
	FinishedAt           *time.Time
}

func (ClusteringRun) TableName() string {
	return "clustering_runs"
}
