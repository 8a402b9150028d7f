package service

import (
	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
)

func toSubmissionResponse(s *entity.Submission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		Id:         s.Id,
		Content:    s.Content,
		Region:     s.Region,
		Language:   s.Language,
		Age:        s.Age,
		Occupation: s.Occupation,
		Channel:    string(s.Channel),
		Status:     string(s.Status),
		ClusterId:  s.ClusterId,
		CreatedAt:  s.CreatedAt,
	}
}

func toSubmissionResponses(rows []*entity.Submission) []*dto.SubmissionResponse {
	out := make([]*dto.SubmissionResponse, len(rows))
	for i, s := range rows {
		out[i] = toSubmissionResponse(s)
	}
	return out
}

func toClusterResponse(c *entity.Cluster, clause *entity.BillClause) *dto.ClusterResponse {
	res := &dto.ClusterResponse{
		Id:              c.Id,
		Label:           c.Label,
		MemberCount:     c.MemberCount,
		CentroidSummary: c.Summary,
		Keywords:        c.Keywords,
		Version:         c.Version,
		Cohesion:        c.Cohesion,
		Status:          string(c.Status),
		UpdatedAt:       c.UpdatedAt,
	}
	if res.Keywords == nil {
		res.Keywords = []string{}
	}
	if clause != nil {
		id := clause.Id
		res.ClauseId = &id
	}
	return res
}

func toClauseResponse(c *entity.BillClause) *dto.ClauseResponse {
	return &dto.ClauseResponse{
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
		Status:           string(c.Status),
		Revision:         c.Revision,
		GenerationMethod: c.GenerationMethod,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toRunResponse(r *entity.ClusteringRun) *dto.ClusteringRunResponse {
	return &dto.ClusteringRunResponse{
		RunId:                r.Id,
		Mode:                 string(r.Mode),
		Status:               string(r.Status),
		ModelVersion:         r.ModelVersion,
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
