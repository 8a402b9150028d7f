package mapper

import (
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/model"
)

type BillClauseMapper struct{}

func NewBillClauseMapper() *BillClauseMapper {
	return &BillClauseMapper{}
}

func (m *BillClauseMapper) ToEntity(c *model.BillClause) *entity.BillClause {
	if c == nil {
		return nil
	}
	return &entity.BillClause{
		Id:               c.Id,
		SectionNumber:    c.SectionNumber,
		Title:            c.Title,
		Content:          c.Content,
		Rationale:        c.Rationale,
		ClusterId:        c.ClusterId,
		SubmissionCount:  c.SubmissionCount,
		ApprovalRate:     c.ApprovalRate,
		Approvals:        c.Approvals,
		Rejections:       c.Rejections,
		Status:           entity.ClauseStatus(c.Status),
		Revision:         c.Revision,
		PreviousContent:  c.PreviousContent,
		GenerationMethod: c.GenerationMethod,
		DrafterVersion:   c.DrafterVersion,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (m *BillClauseMapper) ToModel(e *entity.BillClause) *model.BillClause {
	if e == nil {
		return nil
	}
	return &model.BillClause{
		Id:               e.Id,
		SectionNumber:    e.SectionNumber,
		Title:            e.Title,
		Content:          e.Content,
		Rationale:        e.Rationale,
		ClusterId:        e.ClusterId,
		SubmissionCount:  e.SubmissionCount,
		ApprovalRate:     e.ApprovalRate,
		Approvals:        e.Approvals,
		Rejections:       e.Rejections,
		Status:           string(e.Status),
		Revision:         e.Revision,
		PreviousContent:  e.PreviousContent,
		GenerationMethod: e.GenerationMethod,
		DrafterVersion:   e.DrafterVersion,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func (m *BillClauseMapper) ToEntities(rows []*model.BillClause) []*entity.BillClause {
	out := make([]*entity.BillClause, len(rows))
	for i, r := range rows {
		out[i] = m.ToEntity(r)
	}
	return out
}
