package memory

import (
	"context"
	"fmt"

	"peoples-bill-be/internal/repository/contract"
)

type UnitOfWork struct {
	store    *Store
	snapshot *tables
	inTx     bool
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	u.snapshot = u.store.data.clone()
	u.inTx = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.snapshot = nil
	u.inTx = false
	u.store.release()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.inTx {
		return nil
	}
	u.store.data = u.snapshot
	u.snapshot = nil
	u.inTx = false
	u.store.release()
	return nil
}

// do runs fn against the tables, inside the open transaction if there is one.
func (u *UnitOfWork) do(ctx context.Context, fn func(t *tables) error) error {
	if u.inTx {
		return fn(u.store.data)
	}
	if err := u.store.acquire(ctx); err != nil {
		return err
	}
	defer u.store.release()
	return fn(u.store.data)
}

func (u *UnitOfWork) SubmissionRepository() contract.SubmissionRepository {
	return &submissionRepository{uow: u}
}

func (u *UnitOfWork) ClusterRepository() contract.ClusterRepository {
	return &clusterRepository{uow: u}
}

func (u *UnitOfWork) BillClauseRepository() contract.BillClauseRepository {
	return &billClauseRepository{uow: u}
}

func (u *UnitOfWork) VoteRepository() contract.VoteRepository {
	return &voteRepository{uow: u}
}

func (u *UnitOfWork) ClusteringRunRepository() contract.ClusteringRunRepository {
	return &clusteringRunRepository{uow: u}
}

func (u *UnitOfWork) AdminUserRepository() contract.AdminUserRepository {
	return &adminUserRepository{uow: u}
}

func (u *UnitOfWork) RegionRepository() contract.RegionRepository {
	return &regionRepository{uow: u}
}
