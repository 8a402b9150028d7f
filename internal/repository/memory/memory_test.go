package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/stats"
	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSubmissions(t *testing.T, f *Factory, regions ...string) []*entity.Submission {
	t.Helper()
	ctx := context.Background()
	uow := f.NewUnitOfWork(ctx)
	out := make([]*entity.Submission, 0, len(regions))
	for _, r := range regions {
		s := &entity.Submission{
			Content:           "Public officers must declare assets in " + r,
			NormalizedContent: "Public officers must declare assets in " + r,
			Region:            r,
			Status:            entity.SubmissionStatusPending,
		}
		require.NoError(t, uow.SubmissionRepository().Create(ctx, s))
		out = append(out, s)
	}
	return out
}

func TestSpecificationsFilterAndOrder(t *testing.T) {
	f := NewRepositoryFactory(NewStore()).(*Factory)
	subs := seedSubmissions(t, f, "Volta", "Ashanti", "Volta", "Oti")
	ctx := context.Background()
	repo := f.NewUnitOfWork(ctx).SubmissionRepository()

	rows, err := repo.FindAll(ctx, specification.ByRegion{Region: "Volta"}, specification.MembershipOrder{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, subs[0].Id, rows[0].Id)
	assert.Equal(t, subs[2].Id, rows[1].Id)

	rows, err = repo.FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true}, specification.Pagination{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, subs[2].Id, rows[0].Id)
	assert.Equal(t, subs[1].Id, rows[1].Id)

	n, err := repo.Count(ctx, specification.ContentSearch{Query: "DECLARE"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	f := NewRepositoryFactory(NewStore()).(*Factory)
	ctx := context.Background()
	seedSubmissions(t, f, "Volta")

	uow := f.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.SubmissionRepository().ClearClusters(ctx))
	require.NoError(t, uow.SubmissionRepository().Create(ctx, &entity.Submission{Region: "Oti"}))
	require.NoError(t, uow.Rollback())

	n, err := f.NewUnitOfWork(ctx).SubmissionRepository().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBeginHonoursContextWhileAnotherTransactionIsOpen(t *testing.T) {
	f := NewRepositoryFactory(NewStore())
	first := f.NewUnitOfWork(context.Background())
	require.NoError(t, first.Begin(context.Background()))
	defer first.Rollback()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := f.NewUnitOfWork(ctx).Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDuplicateVoteRejected(t *testing.T) {
	f := NewRepositoryFactory(NewStore())
	ctx := context.Background()
	repo := f.NewUnitOfWork(ctx).VoteRepository()
	clauseID := uuid.New()
	hash := votes.HashVoterToken("phone-233")

	require.NoError(t, repo.Create(ctx, &entity.Vote{ClauseId: clauseID, Kind: votes.Approve, VoterHash: &hash}))
	err := repo.Create(ctx, &entity.Vote{ClauseId: clauseID, Kind: votes.Reject, VoterHash: &hash})

	var dup *apperror.DuplicateVoteError
	require.True(t, errors.As(err, &dup))

	require.NoError(t, repo.Create(ctx, &entity.Vote{ClauseId: clauseID, Kind: votes.Reject}))
	tally, err := repo.TallyByClause(ctx, clauseID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tally.Approvals)
	assert.Equal(t, int64(1), tally.Rejections)
}

func TestStatsCacheHonoursMaxAge(t *testing.T) {
	c := NewStatsCache(time.Minute)
	computed := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	c.Save(&stats.Platform{TotalSubmissions: 4, LastUpdated: computed})

	p, ok := c.Get(computed.Add(30*time.Second), time.Minute)
	require.True(t, ok)
	assert.Equal(t, int64(4), p.TotalSubmissions)

	_, ok = c.Get(computed.Add(2*time.Minute), time.Minute)
	assert.False(t, ok)

	c.Invalidate()
	_, ok = c.Get(computed, time.Minute)
	assert.False(t, ok)
}
