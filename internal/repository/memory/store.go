package memory

import (
	"context"
	"sync"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/pkg/region"
)

type tables struct {
	submissions []*entity.Submission
	clusters    []*entity.Cluster
	clauses     []*entity.BillClause
	votes       []*entity.Vote
	runs        []*entity.ClusteringRun
	admins      []*entity.AdminUser
	regions     map[string]region.Region
}

func (t *tables) clone() *tables {
	out := &tables{
		submissions: cloneRows(t.submissions),
		clusters:    cloneRows(t.clusters),
		clauses:     cloneRows(t.clauses),
		votes:       cloneRows(t.votes),
		runs:        cloneRows(t.runs),
		admins:      cloneRows(t.admins),
		regions:     make(map[string]region.Region, len(t.regions)),
	}
	for k, v := range t.regions {
		out.regions[k] = v
	}
	return out
}

func cloneRows[T any](rows []*T) []*T {
	out := make([]*T, len(rows))
	for i, r := range rows {
		c := *r
		out[i] = &c
	}
	return out
}

// Store is an in-process database for tests and the demo mode of billctl.
// Transactions are fully serialized; a rollback restores the snapshot taken
// at Begin.
type Store struct {
	sem  chan struct{}
	data *tables

	clockMu sync.Mutex
	now     func() time.Time
	last    time.Time
}

func NewStore() *Store {
	return &Store{
		sem:  make(chan struct{}, 1),
		data: &tables{regions: map[string]region.Region{}},
		now:  time.Now,
	}
}

// SetClock replaces the time source used for CreatedAt and UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.now = now
}

// tick returns a strictly increasing timestamp so insertion order survives
// ordering by created_at.
func (s *Store) tick() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

type Factory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &Factory{store: store}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}
