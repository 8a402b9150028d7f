package dto

import (
	"time"

	"peoples-bill-be/pkg/stats"

	"github.com/google/uuid"
)

type ClusterResponse struct {
	Id              uuid.UUID  `json:"id"`
	Label           string     `json:"label"`
	MemberCount     int        `json:"member_count"`
	CentroidSummary string     `json:"centroid_summary"`
	Keywords        []string   `json:"keywords"`
	Version         int        `json:"version"`
	Cohesion        float64    `json:"cohesion"`
	Status          string     `json:"status"`
	ClauseId        *uuid.UUID `json:"clause_id,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ClusterDetailResponse struct {
	ClusterResponse
	Submissions  []*SubmissionResponse `json:"submissions"`
	Demographics stats.Demographics    `json:"demographics"`
}

type ClusteringRunResponse struct {
	RunId                uuid.UUID  `json:"run_id"`
	Mode                 string     `json:"mode"`
	Status               string     `json:"status"`
	ModelVersion         string     `json:"model_version"`
	ClustersCreated      int        `json:"clusters_created"`
	ClustersUpdated      int        `json:"clusters_updated"`
	ClustersRetired      int        `json:"clusters_retired"`
	SubmissionsProcessed int        `json:"submissions_processed"`
	Unclustered          int        `json:"unclustered"`
	EmbeddingFailures    int        `json:"embedding_failures"`
	Error                *string    `json:"error,omitempty"`
	StartedAt            time.Time  `json:"started_at"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
}
