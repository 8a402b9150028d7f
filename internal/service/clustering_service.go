package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/lock"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/cluster"
	"peoples-bill-be/pkg/embedding"
	"peoples-bill-be/pkg/events"
	"peoples-bill-be/pkg/labeler"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// nearestCandidates bounds how many clusters an incremental attach compares against.
const nearestCandidates = 5

type IClusteringService interface {
	RunFull(ctx context.Context) (*dto.ClusteringRunResponse, error)
	RunIncremental(ctx context.Context) (*dto.ClusteringRunResponse, error)
	// AttachOne greedily attaches a single embedded submission to an existing
	// cluster. It reports false when the submission was left for the next run.
	AttachOne(ctx context.Context, submissionID uuid.UUID) (bool, error)
	CancelRun() bool
	ListRuns(ctx context.Context, limit int) ([]*dto.ClusteringRunResponse, error)
}

type ClusteringOptions struct {
	Engine       cluster.Options
	EmbedWorkers int
}

type clusteringService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	engine     *cluster.Engine
	opts       ClusteringOptions
	runLock    lock.RunLock
	events     events.Publisher
	metrics    *tracer.Metrics
	logger     logger.ILogger

	mu     sync.Mutex
	active uuid.UUID
	cancel context.CancelFunc
}

func NewClusteringService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	opts ClusteringOptions,
	runLock lock.RunLock,
	publisher events.Publisher,
	metrics *tracer.Metrics,
	log logger.ILogger,
) IClusteringService {
	if opts.EmbedWorkers <= 0 {
		opts.EmbedWorkers = 1
	}
	return &clusteringService{
		uowFactory: uowFactory,
		embedder:   embedder,
		engine:     cluster.NewEngine(opts.Engine),
		opts:       opts,
		runLock:    runLock,
		events:     publisher,
		metrics:    metrics,
		logger:     log,
	}
}

// RunFull re-partitions every eligible submission. All cluster writes happen
// in a single transaction at the end, so a failed or cancelled run leaves the
// previous partition in place. A failed run returns both its record and the error.
func (s *clusteringService) RunFull(ctx context.Context) (*dto.ClusteringRunResponse, error) {
	release, ok, err := s.runLock.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, s.inProgress(ctx)
	}
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runCtx, span := tracer.Tracer().Start(runCtx, "clustering.full")
	defer span.End()

	run, err := s.startRun(runCtx, entity.RunModeFull)
	if err != nil {
		return nil, err
	}
	s.register(run.Id, cancel)
	defer s.unregister(run.Id)

	err = s.full(runCtx, run)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Int("clusters.created", run.ClustersCreated),
		attribute.Int("submissions.processed", run.SubmissionsProcessed),
	)
	return s.finish(runCtx, run, err)
}

func (s *clusteringService) full(ctx context.Context, run *entity.ClusteringRun) error {
	subs, err := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository().FindAll(ctx,
		specification.EligibleForClustering{},
		specification.MembershipOrder{},
	)
	if err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}

	eligible, failures, err := s.ensureEmbeddings(ctx, subs)
	run.EmbeddingFailures = failures
	if err != nil {
		return err
	}
	run.SubmissionsProcessed = len(eligible)

	if len(eligible) < s.opts.Engine.MinEligible {
		run.Status = entity.RunStatusNoop
		return nil
	}

	groups, unclustered, err := s.partition(ctx, eligible)
	if err != nil {
		return err
	}
	run.Unclustered = unclustered

	previous, existing, err := s.activeClusters(ctx)
	if err != nil {
		return err
	}
	plan := cluster.Reconcile(previous, groups)
	run.ClustersCreated, run.ClustersUpdated, run.ClustersRetired = plan.Counts()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.apply(ctx, run, eligible, groups, plan, existing); err != nil {
		return err
	}
	run.Status = entity.RunStatusSucceeded
	return nil
}

// partition runs the engine once per language so no cluster mixes languages.
// Member and representative indexes of the returned groups refer to eligible.
func (s *clusteringService) partition(ctx context.Context, eligible []*entity.Submission) ([]cluster.Group, int, error) {
	pools := make(map[string][]int)
	for i, sub := range eligible {
		pools[sub.Language] = append(pools[sub.Language], i)
	}
	languages := make([]string, 0, len(pools))
	for lang := range pools {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	var groups []cluster.Group
	unclustered := 0
	for _, lang := range languages {
		idx := pools[lang]
		points := make([]cluster.Point, len(idx))
		for i, ei := range idx {
			points[i] = cluster.Point{ID: eligible[ei].Id, Vector: eligible[ei].Embedding}
		}

		part, err := s.engine.Run(ctx, points)
		if err != nil {
			return nil, 0, err
		}
		if part.NoOp {
			unclustered += len(points)
			continue
		}
		unclustered += len(part.Unclustered)

		for _, g := range part.Groups {
			members := make([]int, len(g.Members))
			for i, m := range g.Members {
				members[i] = idx[m]
			}
			g.Representative = idx[g.Representative]
			g.Members = members
			groups = append(groups, g)
		}
	}
	return groups, unclustered, nil
}

func (s *clusteringService) activeClusters(ctx context.Context) ([]cluster.ExistingCluster, map[uuid.UUID]*entity.Cluster, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.ClusterRepository().FindAll(ctx,
		specification.ByStatus{Status: string(entity.ClusterStatusActive)},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load clusters: %w", err)
	}

	previous := make([]cluster.ExistingCluster, 0, len(rows))
	existing := make(map[uuid.UUID]*entity.Cluster, len(rows))
	for _, c := range rows {
		members, err := uow.SubmissionRepository().FindAll(ctx,
			specification.ByClusterID{ClusterID: c.Id},
			specification.MembershipOrder{},
		)
		if err != nil {
			return nil, nil, fmt.Errorf("load members of cluster %s: %w", c.Id, err)
		}
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.Id
		}
		previous = append(previous, cluster.ExistingCluster{ID: c.Id, Version: c.Version, Members: ids})
		existing[c.Id] = c
	}
	return previous, existing, nil
}

func (s *clusteringService) apply(
	ctx context.Context,
	run *entity.ClusteringRun,
	eligible []*entity.Submission,
	groups []cluster.Group,
	plan cluster.Plan,
	existing map[uuid.UUID]*entity.Cluster,
) error {
	model := s.embedder.ModelVersion()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SubmissionRepository().ClearClusters(ctx); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}

	for _, a := range plan.Assignments {
		g := groups[a.Group]

		texts := make([]string, len(g.Members))
		representative := 0
		for i, m := range g.Members {
			texts[i] = eligible[m].NormalizedContent
			if m == g.Representative {
				representative = i
			}
		}
		label := labeler.Label(texts, representative)
		repID := eligible[g.Representative].Id

		c, found := existing[a.ClusterID]
		isNew := a.New || !found
		if isNew {
			c = &entity.Cluster{Id: uuid.New(), Version: 1}
		} else {
			c.Version = a.Version
		}
		c.Label = label.Label
		c.Summary = label.Summary
		c.Keywords = label.Keywords
		c.LabelMethod = label.Method
		c.Centroid = g.Centroid
		c.RepresentativeId = &repID
		c.MemberCount = len(g.MemberIDs)
		c.Cohesion = g.Cohesion
		c.Status = entity.ClusterStatusActive
		c.EmbeddingModel = model
		c.Language = eligible[g.Representative].Language
		c.RunId = &run.Id

		if isNew {
			if err := uow.ClusterRepository().Create(ctx, c); err != nil {
				return fmt.Errorf("create cluster: %w", err)
			}
		} else if err := uow.ClusterRepository().Update(ctx, c); err != nil {
			return fmt.Errorf("update cluster %s: %w", c.Id, err)
		}

		if err := uow.SubmissionRepository().AssignCluster(ctx, c.Id, g.MemberIDs); err != nil {
			return fmt.Errorf("assign members to cluster %s: %w", c.Id, err)
		}
	}

	if len(plan.Retired) > 0 {
		if err := uow.ClusterRepository().Retire(ctx, plan.Retired); err != nil {
			return fmt.Errorf("retire clusters: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return uow.Commit()
}

// ensureEmbeddings returns the submissions that carry a vector from the
// current model, embedding the ones that do not. Submissions that still
// cannot be embedded are counted and left out.
func (s *clusteringService) ensureEmbeddings(ctx context.Context, subs []*entity.Submission) ([]*entity.Submission, int, error) {
	model := s.embedder.ModelVersion()

	var missing []int
	for i, sub := range subs {
		if !sub.HasEmbedding(model) {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return subs, 0, nil
	}

	texts := make([]string, len(missing))
	for i, idx := range missing {
		texts[i] = subs[idx].NormalizedContent
	}
	results, errs, err := embedding.EmbedEach(ctx, s.embedder, texts, s.opts.EmbedWorkers)
	if err != nil {
		return nil, 0, err
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository()
	failed := make(map[int]struct{})
	for i, idx := range missing {
		sub := subs[idx]
		if errs[i] != nil {
			failed[idx] = struct{}{}
			s.logger.Warn("CLUSTERING", "Failed to embed submission", map[string]interface{}{
				"submission_id": sub.Id,
				"error":         errs[i].Error(),
			})
			continue
		}
		vec := results[i].Embedding.Values
		if err := repo.UpdateEmbedding(ctx, sub.Id, vec, results[i].ModelVersion); err != nil {
			return nil, 0, fmt.Errorf("store embedding for %s: %w", sub.Id, err)
		}
		sub.Embedding = vec
		sub.EmbeddingModel = results[i].ModelVersion
		if !sub.HasEmbedding(model) {
			failed[idx] = struct{}{}
		}
	}

	s.metrics.EmbeddingFailed(ctx, len(failed))
	if len(failed) == 0 {
		return subs, 0, nil
	}
	out := make([]*entity.Submission, 0, len(subs)-len(failed))
	for i, sub := range subs {
		if _, ok := failed[i]; !ok {
			out = append(out, sub)
		}
	}
	return out, len(failed), nil
}

// RunIncremental attaches every unclustered submission it can to an existing
// cluster. It never creates clusters; those come from the next full run.
func (s *clusteringService) RunIncremental(ctx context.Context) (*dto.ClusteringRunResponse, error) {
	release, ok, err := s.runLock.TryRLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, s.inProgress(ctx)
	}
	defer release()

	ctx, span := tracer.Tracer().Start(ctx, "clustering.incremental")
	defer span.End()

	run, err := s.startRun(ctx, entity.RunModeIncremental)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, run, s.incremental(ctx, run))
}

func (s *clusteringService) incremental(ctx context.Context, run *entity.ClusteringRun) error {
	subs, err := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository().FindAll(ctx,
		specification.Unclustered{},
		specification.EligibleForClustering{},
		specification.MembershipOrder{},
	)
	if err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}

	eligible, failures, err := s.ensureEmbeddings(ctx, subs)
	run.EmbeddingFailures = failures
	if err != nil {
		return err
	}
	run.SubmissionsProcessed = len(eligible)

	touched := make(map[uuid.UUID]struct{})
	for _, sub := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		clusterID, ok, err := s.attach(ctx, sub)
		if errors.Is(err, errAlreadySettled) {
			continue
		}
		if err != nil {
			return err
		}
		if !ok {
			run.Unclustered++
			continue
		}
		touched[clusterID] = struct{}{}
	}
	run.ClustersUpdated = len(touched)
	run.Status = entity.RunStatusSucceeded
	return nil
}

func (s *clusteringService) AttachOne(ctx context.Context, submissionID uuid.UUID) (bool, error) {
	release, ok, err := s.runLock.TryRLock(ctx)
	if err != nil || !ok {
		return false, err
	}
	defer release()

	sub, err := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository().FindOne(ctx, specification.ByID{ID: submissionID})
	if err != nil {
		return false, err
	}
	if sub == nil || sub.ClusterId != nil || sub.Status == entity.SubmissionStatusRejected {
		return false, nil
	}
	if !sub.HasEmbedding(s.embedder.ModelVersion()) {
		return false, nil
	}

	_, ok, err = s.attach(ctx, sub)
	if errors.Is(err, errAlreadySettled) {
		return false, nil
	}
	return ok, err
}

// errAlreadySettled means the submission was clustered or rejected after it
// was loaded.
var errAlreadySettled = errors.New("submission already settled")

// attach folds sub into the most similar active cluster of its language when
// that cluster clears the attach threshold. The centroid update happens under
// a row lock so concurrent attaches to one cluster are not lost.
func (s *clusteringService) attach(ctx context.Context, sub *entity.Submission) (uuid.UUID, bool, error) {
	nearest, err := s.uowFactory.NewUnitOfWork(ctx).ClusterRepository().NearestActive(ctx,
		sub.Embedding, sub.EmbeddingModel, sub.Language, nearestCandidates)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("find nearest clusters: %w", err)
	}

	candidates := make([]cluster.Candidate, len(nearest))
	for i, n := range nearest {
		candidates[i] = cluster.Candidate{ID: n.Cluster.Id, Centroid: n.Cluster.Centroid, Size: n.Cluster.MemberCount}
	}
	clusterID, similarity, ok := cluster.Attach(sub.Embedding, candidates, s.opts.Engine.AttachThreshold)
	if !ok {
		return uuid.Nil, false, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, false, err
	}
	defer uow.Rollback()

	// Submission row first, then cluster row. A concurrent attach of the same
	// submission waits here and sees the committed cluster_id.
	current, err := uow.SubmissionRepository().FindOne(ctx, specification.ByID{ID: sub.Id}, specification.ForUpdate{})
	if err != nil {
		return uuid.Nil, false, err
	}
	if current == nil || current.ClusterId != nil || current.Status == entity.SubmissionStatusRejected {
		return uuid.Nil, false, errAlreadySettled
	}

	c, err := uow.ClusterRepository().FindOne(ctx, specification.ByID{ID: clusterID}, specification.ForUpdate{})
	if err != nil {
		return uuid.Nil, false, err
	}
	if c == nil || c.Status != entity.ClusterStatusActive {
		return uuid.Nil, false, nil
	}

	c.Centroid = cluster.UpdateCentroid(c.Centroid, c.MemberCount, sub.Embedding)
	c.MemberCount++
	c.Version++
	if err := uow.ClusterRepository().Update(ctx, c); err != nil {
		return uuid.Nil, false, fmt.Errorf("update cluster %s: %w", c.Id, err)
	}
	if err := uow.SubmissionRepository().AssignCluster(ctx, c.Id, []uuid.UUID{sub.Id}); err != nil {
		return uuid.Nil, false, err
	}
	if err := uow.Commit(); err != nil {
		return uuid.Nil, false, err
	}

	s.logger.Debug("CLUSTERING", "Submission attached", map[string]interface{}{
		"submission_id": sub.Id,
		"cluster_id":    c.Id,
		"similarity":    similarity,
	})
	return c.Id, true, nil
}

func (s *clusteringService) CancelRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *clusteringService) ListRuns(ctx context.Context, limit int) ([]*dto.ClusteringRunResponse, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	runs, err := s.uowFactory.NewUnitOfWork(ctx).ClusteringRunRepository().FindAll(ctx,
		specification.OrderBy{Field: "started_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClusteringRunResponse, len(runs))
	for i, r := range runs {
		out[i] = toRunResponse(r)
	}
	return out, nil
}

func (s *clusteringService) register(id uuid.UUID, cancel context.CancelFunc) {
	s.mu.Lock()
	s.active, s.cancel = id, cancel
	s.mu.Unlock()
}

func (s *clusteringService) unregister(id uuid.UUID) {
	s.mu.Lock()
	if s.active == id {
		s.active, s.cancel = uuid.Nil, nil
	}
	s.mu.Unlock()
}

// inProgress describes the run currently holding the lock. With the Redis
// lock the holder may live in another instance, so the record is looked up.
func (s *clusteringService) inProgress(ctx context.Context) error {
	inErr := &apperror.ClusteringInProgressError{}
	run, err := s.uowFactory.NewUnitOfWork(ctx).ClusteringRunRepository().FindOne(ctx,
		specification.ByStatus{Status: string(entity.RunStatusRunning)},
		specification.OrderBy{Field: "started_at", Desc: true},
	)
	if err == nil && run != nil {
		startedAt := run.StartedAt
		inErr.RunID, inErr.StartedAt = run.Id, &startedAt
	}
	return inErr
}

func (s *clusteringService) startRun(ctx context.Context, mode entity.RunMode) (*entity.ClusteringRun, error) {
	run := &entity.ClusteringRun{
		Id:           uuid.New(),
		Mode:         mode,
		ModelVersion: s.embedder.ModelVersion(),
		Status:       entity.RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).ClusteringRunRepository().Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record clustering run: %w", err)
	}
	s.logger.Info("CLUSTERING", "Clustering run started", map[string]interface{}{
		"run_id": run.Id,
		"mode":   mode,
		"model":  run.ModelVersion,
	})
	return run, nil
}

// finish persists the outcome even when the run context was cancelled.
func (s *clusteringService) finish(ctx context.Context, run *entity.ClusteringRun, runErr error) (*dto.ClusteringRunResponse, error) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()
	run.FinishedAt = &now

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		run.Status = entity.RunStatusCancelled
	default:
		run.Status = entity.RunStatusFailed
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}

	if err := s.uowFactory.NewUnitOfWork(ctx).ClusteringRunRepository().Update(ctx, run); err != nil {
		s.logger.Error("CLUSTERING", "Failed to record run outcome", map[string]interface{}{
			"run_id": run.Id,
			"error":  err.Error(),
		})
	}
	s.metrics.RunFinished(ctx, string(run.Mode), string(run.Status), now.Sub(run.StartedAt).Seconds())

	details := map[string]interface{}{
		"run_id":                run.Id,
		"mode":                  run.Mode,
		"status":                run.Status,
		"clusters_created":      run.ClustersCreated,
		"clusters_updated":      run.ClustersUpdated,
		"clusters_retired":      run.ClustersRetired,
		"submissions_processed": run.SubmissionsProcessed,
		"unclustered":           run.Unclustered,
		"embedding_failures":    run.EmbeddingFailures,
	}
	if runErr != nil {
		details["error"] = runErr.Error()
		s.logger.Error("CLUSTERING", "Clustering run failed", details)
		return toRunResponse(run), runErr
	}

	s.logger.Info("CLUSTERING", "Clustering run finished", details)
	if run.Status == entity.RunStatusSucceeded {
		publishEvent(ctx, s.events, s.logger, events.New(events.ClusteringCompleted, map[string]interface{}{
			"run_id":           run.Id.String(),
			"mode":             string(run.Mode),
			"clusters_created": run.ClustersCreated,
			"clusters_updated": run.ClustersUpdated,
		}))
	}
	return toRunResponse(run), nil
}
