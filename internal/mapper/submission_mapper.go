package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type SubmissionMapper struct{}

func NewSubmissionMapper() *SubmissionMapper {
	return &SubmissionMapper{}
}

func (m *SubmissionMapper) ToEntity(s *model.Submission) *entity.Submission {
	if s == nil {
		return nil
	}

	var vec []float32
	if s.Embedding != nil {
		vec = s.Embedding.Slice()
	}

	return &entity.Submission{
		Id:                s.Id,
		Content:           s.Content,
		NormalizedContent: s.NormalizedContent,
		Region:            s.Region,
		Age:               s.Age,
		Occupation:        s.Occupation,
		Language:          s.Language,
		Channel:           entity.SubmissionChannel(s.Channel),
		Embedding:         vec,
		EmbeddingModel:    s.EmbeddingModel,
		Status:            entity.SubmissionStatus(s.Status),
		ClusterId:         s.ClusterId,
		ReviewedAt:        s.ReviewedAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (m *SubmissionMapper) ToModel(e *entity.Submission) *model.Submission {
	if e == nil {
		return nil
	}

	var vec *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		vec = &v
	}

	return &model.Submission{
		Id:                e.Id,
		Content:           e.Content,
		NormalizedContent: e.NormalizedContent,
		Region:            e.Region,
		Age:               e.Age,
		Occupation:        e.Occupation,
		Language:          e.Language,
		Channel:           string(e.Channel),
		Embedding:         vec,
		EmbeddingModel:    e.EmbeddingModel,
		Status:            string(e.Status),
		ClusterId:         e.ClusterId,
		ReviewedAt:        e.ReviewedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func (m *SubmissionMapper) ToEntities(rows []*model.Submission) []*entity.Submission {
	out := make([]*entity.Submission, len(rows))
	for i, r := range rows {
		out[i] = m.ToEntity(r)
	}
	return out
}
