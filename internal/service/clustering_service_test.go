package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/lock"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/cluster"
	"peoples-bill-be/pkg/embedding"
	"peoples-bill-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFullGroupsTopics(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, assetTexts[0], penaltyTexts[0], assetTexts[1], penaltyTexts[1], assetTexts[2])

	res, err := env.clustering.RunFull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(entity.RunStatusSucceeded), res.Status)
	assert.Equal(t, 2, res.ClustersCreated)
	assert.Equal(t, 5, res.SubmissionsProcessed)
	assert.Equal(t, 0, res.Unclustered)
	assert.Equal(t, 0, res.EmbeddingFailures)
	assert.Equal(t, env.embedder.ModelVersion(), res.ModelVersion)

	clusters := env.activeClusters(t)
	require.Len(t, clusters, 2)
	assert.Equal(t, 3, clusters[0].MemberCount)
	assert.NotEmpty(t, clusters[0].Label)
	assert.NotEmpty(t, clusters[0].Keywords)
	assert.Equal(t, 2, clusters[1].MemberCount)
	for _, c := range clusters {
		assert.Equal(t, 1, c.Version)
		assert.Equal(t, "en", c.Language)
		require.NotNil(t, c.RepresentativeId)
	}

	assert.Contains(t, env.recorder.Types(), events.ClusteringCompleted)
}

func TestRunFullKeepsIdentitiesWhenMembershipIsUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	ctx := context.Background()

	_, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	before := env.activeClusters(t)

	res, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ClustersCreated)
	assert.Equal(t, 0, res.ClustersUpdated)
	assert.Equal(t, 0, res.ClustersRetired)

	after := env.activeClusters(t)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Id, after[i].Id)
		assert.Equal(t, before[i].Version, after[i].Version)
	}
}

func TestRunFullRetiresClustersThatLoseTheirMembers(t *testing.T) {
	env := newTestEnv(t)
	subs := env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	ctx := context.Background()

	_, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)

	repo := env.factory.NewUnitOfWork(ctx).SubmissionRepository()
	for _, s := range subs[3:] {
		row, err := repo.FindOne(ctx, specification.ByID{ID: s.Id})
		require.NoError(t, err)
		row.Status = entity.SubmissionStatusRejected
		require.NoError(t, repo.Update(ctx, row))
	}

	res, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SubmissionsProcessed)
	assert.Equal(t, 1, res.ClustersRetired)

	active := env.activeClusters(t)
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].MemberCount)

	retired, err := env.factory.NewUnitOfWork(ctx).ClusterRepository().Count(ctx,
		specification.ByStatus{Status: string(entity.ClusterStatusRetired)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), retired)

	for _, s := range subs[3:] {
		row, err := repo.FindOne(ctx, specification.ByID{ID: s.Id})
		require.NoError(t, err)
		assert.Nil(t, row.ClusterId)
	}
}

func TestRunFullWithTooFewSubmissionsIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, assetTexts[:2]...)

	res, err := env.clustering.RunFull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(entity.RunStatusNoop), res.Status)
	assert.Equal(t, 2, res.SubmissionsProcessed)
	assert.Empty(t, env.activeClusters(t))
	assert.NotContains(t, env.recorder.Types(), events.ClusteringCompleted)
}

func TestRunFullNeverMixesLanguages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subs := env.seed(t, assetTexts...)
	repo := env.factory.NewUnitOfWork(ctx).SubmissionRepository()
	for _, s := range env.seed(t, assetTexts...) {
		s.Language = "tw"
		require.NoError(t, repo.Update(ctx, s))
	}

	res, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ClustersCreated)

	clusters := env.activeClusters(t)
	require.Len(t, clusters, 2)
	languages := map[string]int{}
	for _, c := range clusters {
		languages[c.Language] = c.MemberCount
	}
	assert.Equal(t, map[string]int{"en": 3, "tw": 3}, languages)

	members, err := repo.FindAll(ctx, specification.ByClusterID{ClusterID: *mustCluster(t, env, subs[0].Id)})
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, "en", m.Language)
	}
}

func mustCluster(t *testing.T, env *testEnv, submissionID uuid.UUID) *uuid.UUID {
	t.Helper()
	ctx := context.Background()
	s, err := env.factory.NewUnitOfWork(ctx).SubmissionRepository().FindOne(ctx, specification.ByID{ID: submissionID})
	require.NoError(t, err)
	require.NotNil(t, s.ClusterId)
	return s.ClusterId
}

func TestConcurrentFullRunIsRejected(t *testing.T) {
	embedder := newGatedEmbedder()
	env := newTestEnvWith(t, embedder)
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	ctx := context.Background()

	first := make(chan runResult, 1)
	go func() {
		first <- runFull(ctx, env)
	}()
	<-embedder.entered

	_, err := env.clustering.RunFull(ctx)
	var inProgress *apperror.ClusteringInProgressError
	require.True(t, errors.As(err, &inProgress), "got %v", err)
	assert.NotEqual(t, uuid.Nil, inProgress.RunID)
	require.NotNil(t, inProgress.StartedAt)

	close(embedder.gate)
	select {
	case r := <-first:
		require.NoError(t, r.err)
		assert.Equal(t, string(entity.RunStatusSucceeded), r.status)
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}

	runs, err := env.clustering.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, inProgress.RunID, runs[0].RunId)
}

type runResult struct {
	status string
	err    error
}

func runFull(ctx context.Context, env *testEnv) runResult {
	res, err := env.clustering.RunFull(ctx)
	if res == nil {
		return runResult{err: err}
	}
	return runResult{status: res.Status, err: err}
}

func TestCancelRunLeavesPreviousPartition(t *testing.T) {
	embedder := newGatedEmbedder()
	env := newTestEnvWith(t, embedder)
	ctx := context.Background()
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)

	assert.False(t, env.clustering.CancelRun())

	done := make(chan runResult, 1)
	go func() {
		done <- runFull(ctx, env)
	}()
	<-embedder.entered
	require.True(t, env.clustering.CancelRun())

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.Equal(t, string(entity.RunStatusCancelled), r.status)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not return")
	}
	assert.Empty(t, env.activeClusters(t))

	runs, err := env.clustering.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Error)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestRunIncrementalAttachesToExistingCluster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)

	_, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	before := env.activeClusters(t)

	late := env.seed(t, assetTexts[0], "Street lights should stay on at night in rural towns.")

	res, err := env.clustering.RunIncremental(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(entity.RunModeIncremental), res.Mode)
	assert.Equal(t, 2, res.SubmissionsProcessed)
	assert.Equal(t, 1, res.ClustersUpdated)
	assert.Equal(t, 1, res.Unclustered)
	assert.Equal(t, 0, res.ClustersCreated)

	assert.Equal(t, before[0].Id, *mustCluster(t, env, late[0].Id))

	after := env.activeClusters(t)
	assert.Equal(t, 4, after[0].MemberCount)
	assert.Equal(t, before[0].Version+1, after[0].Version)

	s, err := env.factory.NewUnitOfWork(ctx).SubmissionRepository().FindOne(ctx, specification.ByID{ID: late[1].Id})
	require.NoError(t, err)
	assert.Nil(t, s.ClusterId)
}

func TestAttachOneSkipsWhileFullRunHoldsTheLock(t *testing.T) {
	embedder := newGatedEmbedder()
	env := newTestEnvWith(t, embedder)
	ctx := context.Background()
	subs := env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = env.clustering.RunFull(ctx)
	}()
	<-embedder.entered

	attached, err := env.clustering.AttachOne(ctx, subs[0].Id)
	require.NoError(t, err)
	assert.False(t, attached)

	close(embedder.gate)
	<-done
}

func TestConcurrentAttachOneFoldsSubmissionOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	_, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)
	before := env.activeClusters(t)

	late := env.seed(t, assetTexts[1])[0]
	emb, err := env.embedder.Generate(ctx, late.NormalizedContent, embedding.TaskTypeClustering)
	require.NoError(t, err)
	require.NoError(t, env.factory.NewUnitOfWork(ctx).SubmissionRepository().
		UpdateEmbedding(ctx, late.Id, emb.Embedding.Values, emb.ModelVersion))

	// Both callers pass the nearest-cluster lookup before either commits.
	var arrived atomic.Int32
	release := make(chan struct{})
	hooked := &hookedFactory{RepositoryFactory: env.factory}
	hooked.afterNearest = func() {
		if arrived.Add(1) == 2 {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}
	svc := NewClusteringService(hooked, env.embedder,
		ClusteringOptions{Engine: cluster.DefaultOptions(), EmbedWorkers: 2},
		lock.NewLocal(), env.recorder, env.metrics, env.log)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.AttachOne(ctx, late.Id)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []bool{true, false}, results)

	owner := mustCluster(t, env, late.Id)
	after, err := env.factory.NewUnitOfWork(ctx).ClusterRepository().FindOne(ctx, specification.ByID{ID: *owner})
	require.NoError(t, err)
	members, err := env.factory.NewUnitOfWork(ctx).SubmissionRepository().Count(ctx, specification.ByClusterID{ClusterID: *owner})
	require.NoError(t, err)
	assert.Equal(t, int(members), after.MemberCount)

	for _, b := range before {
		if b.Id == *owner {
			assert.Equal(t, b.MemberCount+1, after.MemberCount)
			assert.Equal(t, b.Version+1, after.Version)
		}
	}
}

func TestRunIncrementalSkipsSubmissionAttachedMeanwhile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)
	_, err := env.clustering.RunFull(ctx)
	require.NoError(t, err)

	late := env.seed(t, assetTexts[2])[0]

	// The consumer attaches the submission after the incremental run has
	// looked up its nearest cluster but before it takes the row locks.
	var once sync.Once
	hooked := &hookedFactory{RepositoryFactory: env.factory}
	hooked.afterNearest = func() {
		once.Do(func() {
			attached, err := env.clustering.AttachOne(ctx, late.Id)
			assert.NoError(t, err)
			assert.True(t, attached)
		})
	}
	svc := NewClusteringService(hooked, env.embedder,
		ClusteringOptions{Engine: cluster.DefaultOptions(), EmbedWorkers: 2},
		lock.NewLocal(), env.recorder, env.metrics, env.log)

	res, err := svc.RunIncremental(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ClustersUpdated)
	assert.Equal(t, 0, res.Unclustered)

	owner := mustCluster(t, env, late.Id)
	c, err := env.factory.NewUnitOfWork(ctx).ClusterRepository().FindOne(ctx, specification.ByID{ID: *owner})
	require.NoError(t, err)
	members, err := env.factory.NewUnitOfWork(ctx).SubmissionRepository().Count(ctx, specification.ByClusterID{ClusterID: *owner})
	require.NoError(t, err)
	assert.Equal(t, int(members), c.MemberCount)
}
