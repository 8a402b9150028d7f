package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusteredEnv returns an environment after one full run over both topics,
// with the clusters largest first.
func clusteredEnv(t *testing.T) (*testEnv, []*entity.Cluster) {
	t.Helper()
	env := newTestEnv(t)
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	_, err := env.clustering.RunFull(context.Background())
	require.NoError(t, err)
	clusters := env.activeClusters(t)
	require.Len(t, clusters, 2)
	return env, clusters
}

func TestGenerateIsIdempotent(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()

	first, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.Clause.SectionNumber)
	assert.Equal(t, 3, first.Clause.SubmissionCount)
	assert.Equal(t, 50.0, first.Clause.ApprovalRate)
	assert.Equal(t, 1, first.Clause.Revision)
	assert.NotEmpty(t, first.Clause.Title)
	require.NotNil(t, first.Validation)

	again, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Clause.Id, again.Clause.Id)
	assert.Equal(t, first.Clause.Content, again.Clause.Content)

	second, err := env.clauses.Generate(ctx, clusters[1].Id)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Clause.SectionNumber)
	assert.Equal(t, 2, second.Clause.SubmissionCount)

	n, err := env.factory.NewUnitOfWork(ctx).BillClauseRepository().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, countType(env.recorder.Types(), events.ClauseDrafted))
}

func countType(types []string, want string) int {
	n := 0
	for _, ty := range types {
		if ty == want {
			n++
		}
	}
	return n
}

func TestGenerateUnknownCluster(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.clauses.Generate(context.Background(), uuid.New())
	var notFound *apperror.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRegenerationPreservesSectionAndCount(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()

	_, err := env.clauses.Generate(ctx, clusters[1].Id)
	require.NoError(t, err)
	first, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)

	regen, err := env.clauses.Regenerate(ctx, first.Clause.Id)
	require.NoError(t, err)
	assert.False(t, regen.Created)
	assert.Equal(t, first.Clause.Id, regen.Clause.Id)
	assert.Equal(t, first.Clause.SectionNumber, regen.Clause.SectionNumber)
	assert.Equal(t, first.Clause.SubmissionCount, regen.Clause.SubmissionCount)
	assert.Equal(t, first.Clause.Title, regen.Clause.Title)
	assert.Equal(t, 2, regen.Clause.Revision)

	stored, err := env.factory.NewUnitOfWork(ctx).BillClauseRepository().FindOne(ctx, specification.ByID{ID: first.Clause.Id})
	require.NoError(t, err)
	require.NotNil(t, stored.PreviousContent)
	assert.Equal(t, first.Clause.Content, *stored.PreviousContent)
	assert.Contains(t, env.recorder.Types(), events.ClauseRegenerated)
}

func TestRegenerateKeepsVotes(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()

	first, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)
	_, err = env.votes.Cast(ctx, &dto.CastVoteRequest{ClauseId: first.Clause.Id, Vote: "reject"})
	require.NoError(t, err)

	regen, err := env.clauses.Regenerate(ctx, first.Clause.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), regen.Clause.Rejections)
	assert.Equal(t, 0.0, regen.Clause.ApprovalRate)
}

func TestWithdrawnClauseLeavesTheBill(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()

	a, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)
	b, err := env.clauses.Generate(ctx, clusters[1].Id)
	require.NoError(t, err)

	withdrawn, err := env.clauses.Withdraw(ctx, b.Clause.Id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ClauseStatusWithdrawn), withdrawn.Status)

	listed, err := env.clauses.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, a.Clause.Id, listed[0].Id)

	all, err := env.clauses.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bill, err := env.clauses.FullBill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bill.TotalClauses)
	assert.Contains(t, bill.FullText, "SECTION 1: "+a.Clause.Title)
	assert.NotContains(t, bill.FullText, "SECTION 2")

	next, err := env.factory.NewUnitOfWork(ctx).BillClauseRepository().NextSectionNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	var vErr *apperror.ValidationError
	_, err = env.clauses.Regenerate(ctx, b.Clause.Id)
	assert.True(t, errors.As(err, &vErr))
	_, err = env.votes.Cast(ctx, &dto.CastVoteRequest{ClauseId: b.Clause.Id, Vote: "approve"})
	assert.True(t, errors.As(err, &vErr))
}

func TestGenerateRejectsRetiredCluster(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()
	require.NoError(t, env.factory.NewUnitOfWork(ctx).ClusterRepository().Retire(ctx, []uuid.UUID{clusters[1].Id}))

	_, err := env.clauses.Generate(ctx, clusters[1].Id)
	var vErr *apperror.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "cluster_id", vErr.Field)
}

func TestGenerateDraftsFromUnrejectedMembersOnly(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()
	repo := env.factory.NewUnitOfWork(ctx).SubmissionRepository()

	members, err := repo.FindAll(ctx, specification.ByClusterID{ClusterID: clusters[1].Id})
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.NoError(t, repo.UpdateStatus(ctx, members[0].Id, entity.SubmissionStatusRejected, time.Now().UTC()))

	res, err := env.clauses.Generate(ctx, clusters[1].Id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Clause.SubmissionCount)

	require.NoError(t, repo.UpdateStatus(ctx, members[1].Id, entity.SubmissionStatusRejected, time.Now().UTC()))
	_, err = env.clauses.Regenerate(ctx, res.Clause.Id)
	var vErr *apperror.ValidationError
	assert.True(t, errors.As(err, &vErr), "got %v", err)
}
