package service

import (
	"context"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/stats"

	"github.com/google/uuid"
)

type IClusterService interface {
	List(ctx context.Context) ([]*dto.ClusterResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ClusterDetailResponse, error)
}

type clusterService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewClusterService(uowFactory unitofwork.RepositoryFactory) IClusterService {
	return &clusterService{uowFactory: uowFactory}
}

// List returns the active clusters, largest first.
func (s *clusterService) List(ctx context.Context) ([]*dto.ClusterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	clusters, err := uow.ClusterRepository().FindAll(ctx,
		specification.ByStatus{Status: string(entity.ClusterStatusActive)},
		specification.OrderBy{Field: "member_count", Desc: true},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	clauses, err := uow.BillClauseRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byCluster := make(map[uuid.UUID]*entity.BillClause, len(clauses))
	for _, c := range clauses {
		byCluster[c.ClusterId] = c
	}

	out := make([]*dto.ClusterResponse, len(clusters))
	for i, c := range clusters {
		out[i] = toClusterResponse(c, byCluster[c.Id])
	}
	return out, nil
}

func (s *clusterService) Get(ctx context.Context, id uuid.UUID) (*dto.ClusterDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.ClusterRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NewNotFoundError("cluster", id)
	}

	clause, err := uow.BillClauseRepository().FindOne(ctx, specification.ByClusterID{ClusterID: id})
	if err != nil {
		return nil, err
	}
	members, err := uow.SubmissionRepository().FindAll(ctx,
		specification.ByClusterID{ClusterID: id},
		specification.MembershipOrder{},
	)
	if err != nil {
		return nil, err
	}

	demo := make([]stats.Member, len(members))
	for i, m := range members {
		demo[i] = stats.Member{Region: m.Region, Age: m.Age, Occupation: m.Occupation}
	}

	return &dto.ClusterDetailResponse{
		ClusterResponse: *toClusterResponse(c, clause),
		Submissions:     toSubmissionResponses(members),
		Demographics:    stats.ClusterDemographics(demo),
	}, nil
}
