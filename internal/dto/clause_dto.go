package dto

import (
	"time"

	"github.com/google/uuid"
)

type ClauseResponse struct {
	Id               uuid.UUID `json:"id"`
	SectionNumber    int       `json:"section_number"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Rationale        string    `json:"rationale"`
	ClusterId        uuid.UUID `json:"cluster_id"`
	SubmissionCount  int       `json:"submission_count"`
	ApprovalRate     float64   `json:"approval_rate"`
	Approvals        int64     `json:"approvals"`
	Rejections       int64     `json:"rejections"`
	Status           string    `json:"status"`
	Revision         int       `json:"revision"`
	GenerationMethod string    `json:"generation_method"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ClauseValidationResponse struct {
	Valid       bool     `json:"valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// DraftClauseResponse is returned to administrators after generation.
type DraftClauseResponse struct {
	Clause         *ClauseResponse           `json:"clause"`
	Created        bool                      `json:"created"`
	FallbackReason string                    `json:"fallback_reason,omitempty"`
	Validation     *ClauseValidationResponse `json:"validation,omitempty"`
}

type FullBillResponse struct {
	Title        string            `json:"title"`
	Version      string            `json:"version"`
	Preamble     string            `json:"preamble"`
	FullText     string            `json:"full_text"`
	Sections     []*ClauseResponse `json:"sections"`
	TotalClauses int               `json:"total_clauses"`
	GeneratedAt  time.Time         `json:"generated_at"`
}
