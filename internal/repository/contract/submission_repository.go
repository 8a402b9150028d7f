package contract

import (
	"context"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	Update(ctx context.Context, submission *entity.Submission) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Submission, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32, model string) error
	// UpdateStatus writes only the moderation columns.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.SubmissionStatus, reviewedAt time.Time) error
	// ClearClusters detaches every submission from its cluster.
	ClearClusters(ctx context.Context) error
	AssignCluster(ctx context.Context, clusterID uuid.UUID, submissionIDs []uuid.UUID) error

	CountByRegion(ctx context.Context) (map[string]int64, error)
	// CountDaily returns per-day counts keyed by YYYY-MM-DD (UTC) since the given time.
	CountDaily(ctx context.Context, since time.Time) (map[string]int64, error)
}
