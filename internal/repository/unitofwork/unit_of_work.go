package unitofwork

import (
	"context"

	"peoples-bill-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SubmissionRepository() contract.SubmissionRepository
	ClusterRepository() contract.ClusterRepository
	BillClauseRepository() contract.BillClauseRepository
	VoteRepository() contract.VoteRepository
	ClusteringRunRepository() contract.ClusteringRunRepository
	AdminUserRepository() contract.AdminUserRepository
	RegionRepository() contract.RegionRepository
}
