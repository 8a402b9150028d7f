package service

import (
	"context"
	"sync"
	"testing"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/lock"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/contract"
	"peoples-bill-be/internal/repository/memory"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/cluster"
	"peoples-bill-be/pkg/drafter"
	"peoples-bill-be/pkg/embedding"
	"peoples-bill-be/pkg/events"

	"github.com/stretchr/testify/require"
)

var (
	assetTexts = []string{
		"Public officers must declare their assets and property every year.",
		"Every public officer should declare assets and property publicly.",
		"Asset declaration by public officers must cover all property.",
	}
	penaltyTexts = []string{
		"Severe penalties and prison terms for corruption convictions.",
		"Corruption must attract severe penalties including prison terms.",
	}
)

type testEnv struct {
	factory    unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	recorder   *events.Recorder
	metrics    *tracer.Metrics
	log        logger.ILogger
	clustering IClusteringService
	clauses    IClauseService
	votes      IVoteService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, embedding.NewHashingProvider(0))
}

func newTestEnvWith(t *testing.T, embedder embedding.EmbeddingProvider) *testEnv {
	t.Helper()
	env := &testEnv{
		factory:  memory.NewRepositoryFactory(memory.NewStore()),
		embedder: embedder,
		recorder: events.NewRecorder(),
		metrics:  tracer.MustMetrics(),
		log:      logger.NewNop(),
	}
	env.clustering = NewClusteringService(env.factory, embedder,
		ClusteringOptions{Engine: cluster.DefaultOptions(), EmbedWorkers: 2},
		lock.NewLocal(), env.recorder, env.metrics, env.log)
	env.clauses = NewClauseService(env.factory, drafter.NewTemplateDrafter(), env.recorder, env.metrics, env.log)
	env.votes = NewVoteService(env.factory, env.recorder, env.metrics, env.log)
	return env
}

// seed stores submissions without embeddings, the way intake leaves them.
func (e *testEnv) seed(t *testing.T, texts ...string) []*entity.Submission {
	t.Helper()
	ctx := context.Background()
	repo := e.factory.NewUnitOfWork(ctx).SubmissionRepository()
	out := make([]*entity.Submission, len(texts))
	for i, text := range texts {
		s := &entity.Submission{
			Content:           text,
			NormalizedContent: text,
			Region:            "Ashanti",
			Language:          "en",
			Channel:           entity.ChannelWeb,
			Status:            entity.SubmissionStatusPending,
		}
		require.NoError(t, repo.Create(ctx, s))
		out[i] = s
	}
	return out
}

func (e *testEnv) activeClusters(t *testing.T) []*entity.Cluster {
	t.Helper()
	res, err := NewClusterService(e.factory).List(context.Background())
	require.NoError(t, err)
	out := make([]*entity.Cluster, 0, len(res))
	for _, r := range res {
		c, err := e.factory.NewUnitOfWork(context.Background()).ClusterRepository().FindOne(context.Background(), specification.ByID{ID: r.Id})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

// gatedEmbedder blocks every Generate call until the gate opens or the
// caller's context ends. entered is closed on the first call.
type gatedEmbedder struct {
	inner   embedding.EmbeddingProvider
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newGatedEmbedder() *gatedEmbedder {
	return &gatedEmbedder{
		inner:   embedding.NewHashingProvider(0),
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
}

func (g *gatedEmbedder) ModelVersion() string { return g.inner.ModelVersion() }

func (g *gatedEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.gate:
		return g.inner.Generate(ctx, text, taskType)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// hookedFactory wraps a factory so tests can run code after selected
// repository reads, outside any store lock.
type hookedFactory struct {
	unitofwork.RepositoryFactory
	afterSubmissionFind func()
	afterNearest        func()
}

func (f *hookedFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &hookedUnitOfWork{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), f: f}
}

type hookedUnitOfWork struct {
	unitofwork.UnitOfWork
	f *hookedFactory
}

func (u *hookedUnitOfWork) SubmissionRepository() contract.SubmissionRepository {
	return &hookedSubmissions{SubmissionRepository: u.UnitOfWork.SubmissionRepository(), f: u.f}
}

func (u *hookedUnitOfWork) ClusterRepository() contract.ClusterRepository {
	return &hookedClusters{ClusterRepository: u.UnitOfWork.ClusterRepository(), f: u.f}
}

type hookedSubmissions struct {
	contract.SubmissionRepository
	f *hookedFactory
}

func (r *hookedSubmissions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Submission, error) {
	out, err := r.SubmissionRepository.FindOne(ctx, specs...)
	if r.f.afterSubmissionFind != nil {
		r.f.afterSubmissionFind()
	}
	return out, err
}

type hookedClusters struct {
	contract.ClusterRepository
	f *hookedFactory
}

func (r *hookedClusters) NearestActive(ctx context.Context, vec []float32, model, language string, limit int) ([]*contract.ScoredCluster, error) {
	out, err := r.ClusterRepository.NearestActive(ctx, vec, model, language, limit)
	if r.f.afterNearest != nil {
		r.f.afterNearest()
	}
	return out, err
}
