package contract

import (
	"context"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredCluster pairs a cluster with its similarity to a query vector
type ScoredCluster struct {
	Cluster    *entity.Cluster
	Similarity float64
}

type ClusterRepository interface {
	Create(ctx context.Context, cluster *entity.Cluster) error
	Update(ctx context.Context, cluster *entity.Cluster) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Cluster, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cluster, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	Retire(ctx context.Context, ids []uuid.UUID) error
	// NearestActive returns active clusters of the given model and language
	// ordered by centroid similarity.
	NearestActive(ctx context.Context, embedding []float32, model, language string, limit int) ([]*ScoredCluster, error)
}
