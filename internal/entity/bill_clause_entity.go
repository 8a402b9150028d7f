package entity

import (
	"time"

	"github.com/google/uuid"
)

type ClauseStatus string

const (
	ClauseStatusDraft     ClauseStatus = "draft"
	ClauseStatusWithdrawn ClauseStatus = "withdrawn"
)

type BillClause struct {
	Id               uuid.UUID
	SectionNumber    int
	Title            string
	Content          string
	Rationale        string
	ClusterId        uuid.UUID
	SubmissionCount  int
	ApprovalRate     float64
	Approvals        int64
	Rejections       int64
	Status           ClauseStatus
	Revision         int
	PreviousContent  *string
	GenerationMethod string
	DrafterVersion   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
