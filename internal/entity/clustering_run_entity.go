package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunMode string
type RunStatus string

const (
	RunModeFull        RunMode = "full"
	RunModeIncremental RunMode = "incremental"

	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusNoop      RunStatus = "noop"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

type ClusteringRun struct {
	Id                   uuid.UUID
	Mode                 RunMode
	ModelVersion         string
	Status               RunStatus
	ClustersCreated      int
	ClustersUpdated      int
	ClustersRetired      int
	SubmissionsProcessed int
	Unclustered          int
	EmbeddingFailures    int
	Error                *string
	StartedAt            time.Time
	FinishedAt           *time.Time
}
