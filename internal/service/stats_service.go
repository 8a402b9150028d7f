package service

import (
	"context"
	"fmt"
	"time"

	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/memory"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/pkg/stats"

	"golang.org/x/sync/singleflight"
)

type IStatsService interface {
	// GetPlatformStats returns cached statistics when they are no older than
	// maxAge and recomputes them otherwise. A zero maxAge always recomputes.
	GetPlatformStats(ctx context.Context, maxAge time.Duration) (*stats.Platform, error)
}

type statsService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.StatsCache
	group      singleflight.Group
	now        func() time.Time
	logger     logger.ILogger
}

func NewStatsService(uowFactory unitofwork.RepositoryFactory, cache *memory.StatsCache, log logger.ILogger) IStatsService {
	return &statsService{
		uowFactory: uowFactory,
		cache:      cache,
		now:        time.Now,
		logger:     log,
	}
}

func (s *statsService) GetPlatformStats(ctx context.Context, maxAge time.Duration) (*stats.Platform, error) {
	if maxAge > 0 {
		if p, ok := s.cache.Get(s.now().UTC(), maxAge); ok {
			return p, nil
		}
	}

	v, err, _ := s.group.Do("platform", func() (interface{}, error) {
		return s.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*stats.Platform), nil
}

func (s *statsService) compute(ctx context.Context) (*stats.Platform, error) {
	now := s.now().UTC()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	snap := stats.Snapshot{Now: now}

	var err error
	subs := uow.SubmissionRepository()
	if snap.TotalSubmissions, err = subs.Count(ctx); err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	if snap.ApprovedSubmissions, err = subs.Count(ctx, specification.ByStatus{Status: string(entity.SubmissionStatusApproved)}); err != nil {
		return nil, fmt.Errorf("count approved submissions: %w", err)
	}
	if snap.ByRegion, err = subs.CountByRegion(ctx); err != nil {
		return nil, fmt.Errorf("count submissions by region: %w", err)
	}
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(stats.TimeSeriesDays - 1))
	if snap.Daily, err = subs.CountDaily(ctx, since); err != nil {
		return nil, fmt.Errorf("count daily submissions: %w", err)
	}

	clusters, err := uow.ClusterRepository().FindAll(ctx, specification.ByStatus{Status: string(entity.ClusterStatusActive)})
	if err != nil {
		return nil, fmt.Errorf("load clusters: %w", err)
	}
	snap.ActiveClusters = int64(len(clusters))
	for _, c := range clusters {
		snap.Themes = append(snap.Themes, stats.Theme{
			ClusterID:   c.Id,
			Theme:       c.Label,
			Submissions: int64(c.MemberCount),
			Cohesion:    c.Cohesion,
		})
	}

	if snap.ActiveClauses, err = uow.BillClauseRepository().Count(ctx, specification.ByStatus{Status: string(entity.ClauseStatusDraft)}); err != nil {
		return nil, fmt.Errorf("count clauses: %w", err)
	}
	tally, err := uow.VoteRepository().TallyAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	snap.Approvals, snap.Rejections = tally.Approvals, tally.Rejections

	p := stats.Compute(snap)
	s.cache.Save(&p)
	s.logger.Debug("STATS", "Platform statistics recomputed", map[string]interface{}{
		"total_submissions": p.TotalSubmissions,
		"clusters":          p.ClustersFormed,
	})
	return &p, nil
}
