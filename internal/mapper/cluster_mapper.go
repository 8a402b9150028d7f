package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ClusterMapper struct{}

func NewClusterMapper() *ClusterMapper {
	return &ClusterMapper{}
}

func (m *ClusterMapper) ToEntity(c *model.Cluster) *entity.Cluster {
	if c == nil {
		return nil
	}
	return &entity.Cluster{
		Id:               c.Id,
		Label:            c.Label,
		Summary:          c.Summary,
		Keywords:         []string(c.Keywords),
		LabelMethod:      c.LabelMethod,
		Centroid:         c.Centroid.Slice(),
		RepresentativeId: c.RepresentativeId,
		MemberCount:      c.MemberCount,
		Cohesion:         c.Cohesion,
		Version:          c.Version,
		Status:           entity.ClusterStatus(c.Status),
		EmbeddingModel:   c.EmbeddingModel,
		Language:         c.Language,
		RunId:            c.RunId,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (m *ClusterMapper) ToModel(e *entity.Cluster) *model.Cluster {
	if e == nil {
		return nil
	}
	return &model.Cluster{
		Id:               e.Id,
		Label:            e.Label,
		Summary:          e.Summary,
		Keywords:         datatypes.JSONSlice[string](e.Keywords),
		LabelMethod:      e.LabelMethod,
		Centroid:         pgvector.NewVector(e.Centroid),
		RepresentativeId: e.RepresentativeId,
		MemberCount:      e.MemberCount,
		Cohesion:         e.Cohesion,
		Version:          e.Version,
		Status:           string(e.Status),
		EmbeddingModel:   e.EmbeddingModel,
		Language:         e.Language,
		RunId:            e.RunId,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func (m *ClusterMapper) ToEntities(rows []*model.Cluster) []*entity.Cluster {
	out := make([]*entity.Cluster, len(rows))
	for i, r := range rows {
		out[i] = m.ToEntity(r)
	}
	return out
}
