package model

import (
	"time"

	"github.com/google/uuid"
)

type BillClause struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SectionNumber    int       `gorm:"not null;uniqueIndex"`
	Title            string    `gorm:"type:varchar(200);not null"`
	Content          string    `gorm:"type:text;not null"`
	Rationale        string    `gorm:"type:text"`
	ClusterId        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Cluster          *Cluster  `gorm:"foreignKey:ClusterId;constraint:OnDelete:RESTRICT;"`
	SubmissionCount  int       `gorm:"not null;default:0"`
	ApprovalRate     float64   `gorm:"not null;default:50;check:approval_rate BETWEEN 0 AND 100"`
	Approvals        int64     `gorm:"not null;default:0"`
	Rejections       int64     `gorm:"not null;default:0"`
	Status           string    `gorm:"type:varchar(20);not null;default:'draft';index"`
	Revision         int       `gorm:"not null;default:1"`
	PreviousContent  *string   `gorm:"type:text"`
	GenerationMethod string    `gorm:"type:varchar(20);not null"`
	DrafterVersion   string    `gorm:"type:varchar(100)"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (BillClause) TableName() string {
	return "bill_clauses"
}
