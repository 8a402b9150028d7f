package contract

import (
	"context"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
)

type ClusteringRunRepository interface {
	Create(ctx context.Context, run *entity.ClusteringRun) error
	Update(ctx context.Context, run *entity.ClusteringRun) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ClusteringRun, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ClusteringRun, error)
}
