package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"
)

type ClusteringRunMapper struct{}

func NewClusteringRunMapper() *ClusteringRunMapper {
	return &ClusteringRunMapper{}
}

func (m *ClusteringRunMapper) ToEntity(r *model.ClusteringRun) *entity.ClusteringRun {
	if r == nil {
		return nil
	}
	return &entity.ClusteringRun{
		Id:                   r.Id,
		Mode:                 entity.RunMode(r.Mode),
		ModelVersion:         r.ModelVersion,
		Status:               entity.RunStatus(r.Status),
		ClustersCreated:      r.ClustersCreated,
		ClustersUpdated:      r.ClustersUpdated,
		ClustersRetired:      r.ClustersRetired,
		SubmissionsProcessed: r.SubmissionsProcessed,
		Unclustered:          r.Unclustered,
		EmbeddingFailures:    r.EmbeddingFailures,
		Error:                r.Error,
		StartedAt:            r.StartedAt,
		FinishedAt:           r.FinishedAt,
	}
}

func (m *ClusteringRunMapper) ToModel(e *entity.ClusteringRun) *model.ClusteringRun {
	if e == nil {
		return nil
	}
	return &model.ClusteringRun{
		Id:                   e.Id,
		Mode:                 string(e.Mode),
		ModelVersion:         e.ModelVersion,
		Status:               string(e.Status),
		ClustersCreated:      e.ClustersCreated,
		ClustersUpdated:      e.ClustersUpdated,
		ClustersRetired:      e.ClustersRetired,
		SubmissionsProcessed: e.SubmissionsProcessed,
		Unclustered:          e.Unclustered,
		EmbeddingFailures:    e.EmbeddingFailures,
		Error:                e.Error,
		StartedAt:            e.StartedAt,
		FinishedAt:           e.FinishedAt,
	}
}
