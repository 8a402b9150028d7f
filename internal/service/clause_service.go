package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/drafter"
	"peoples-bill-be/pkg/events"
	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
)

const (
	billTitle    = "The People's Bill on Reverse Burden"
	billVersion  = "1.0.0-draft"
	billPreamble = "An Act to require public officers to explain wealth disproportionate to their lawful income " +
		"and to provide for the confiscation of unexplained assets."
)

type IClauseService interface {
	// Generate drafts the first clause of a cluster. A cluster that already
	// has a clause gets it back unchanged.
	Generate(ctx context.Context, clusterID uuid.UUID) (*dto.DraftClauseResponse, error)
	Regenerate(ctx context.Context, clauseID uuid.UUID) (*dto.DraftClauseResponse, error)
	Withdraw(ctx context.Context, clauseID uuid.UUID) (*dto.ClauseResponse, error)
	List(ctx context.Context, includeWithdrawn bool) ([]*dto.ClauseResponse, error)
	Get(ctx context.Context, clauseID uuid.UUID) (*dto.ClauseResponse, error)
	FullBill(ctx context.Context) (*dto.FullBillResponse, error)
}

type clauseService struct {
	uowFactory unitofwork.RepositoryFactory
	drafter    drafter.Drafter
	events     events.Publisher
	metrics    *tracer.Metrics
	logger     logger.ILogger
}

func NewClauseService(
	uowFactory unitofwork.RepositoryFactory,
	d drafter.Drafter,
	publisher events.Publisher,
	metrics *tracer.Metrics,
	log logger.ILogger,
) IClauseService {
	return &clauseService{
		uowFactory: uowFactory,
		drafter:    d,
		events:     publisher,
		metrics:    metrics,
		logger:     log,
	}
}

func (s *clauseService) Generate(ctx context.Context, clusterID uuid.UUID) (*dto.DraftClauseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.BillClauseRepository().FindOne(ctx, specification.ByClusterID{ClusterID: clusterID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.DraftClauseResponse{Clause: toClauseResponse(existing)}, nil
	}

	c, err := s.activeCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	draft, members, err := s.draft(ctx, c)
	if err != nil {
		return nil, err
	}

	// The model call above runs outside the transaction; the section number
	// is only allocated once there is something to store.
	tx := s.uowFactory.NewUnitOfWork(ctx)
	if err := tx.Begin(ctx); err != nil {
		return nil, err
	}
	defer tx.Rollback()

	raced, err := tx.BillClauseRepository().FindOne(ctx, specification.ByClusterID{ClusterID: clusterID}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if raced != nil {
		return &dto.DraftClauseResponse{Clause: toClauseResponse(raced)}, nil
	}

	section, err := tx.BillClauseRepository().NextSectionNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate section number: %w", err)
	}

	clause := &entity.BillClause{
		Id:               uuid.New(),
		SectionNumber:    section,
		Title:            draft.Title,
		Content:          draft.Body,
		Rationale:        draft.Rationale,
		ClusterId:        c.Id,
		SubmissionCount:  members,
		ApprovalRate:     votes.NeutralRate,
		Status:           entity.ClauseStatusDraft,
		Revision:         1,
		GenerationMethod: draft.Method,
		DrafterVersion:   draft.Version,
	}
	if err := tx.BillClauseRepository().Create(ctx, clause); err != nil {
		return nil, fmt.Errorf("store clause: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metrics.ClauseDrafted(ctx, draft.Method)
	publishEvent(ctx, s.events, s.logger, events.New(events.ClauseDrafted, map[string]interface{}{
		"clause_id":      clause.Id.String(),
		"cluster_id":     c.Id.String(),
		"section_number": clause.SectionNumber,
	}))
	s.logger.Info("CLAUSE", "Clause drafted", map[string]interface{}{
		"clause_id":       clause.Id,
		"cluster_id":      c.Id,
		"section_number":  clause.SectionNumber,
		"method":          draft.Method,
		"fallback_reason": draft.FallbackReason,
	})

	return toDraftResponse(clause, draft, true), nil
}

// Regenerate re-drafts a clause from its cluster's current membership. The
// clause keeps its identity, section number and vote counts.
func (s *clauseService) Regenerate(ctx context.Context, clauseID uuid.UUID) (*dto.DraftClauseResponse, error) {
	current, err := s.uowFactory.NewUnitOfWork(ctx).BillClauseRepository().FindOne(ctx, specification.ByID{ID: clauseID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperror.NewNotFoundError("clause", clauseID)
	}
	if current.Status == entity.ClauseStatusWithdrawn {
		return nil, apperror.NewValidationError("clause_id", "withdrawn", "withdrawn clauses cannot be regenerated")
	}

	c, err := s.activeCluster(ctx, current.ClusterId)
	if err != nil {
		return nil, err
	}
	draft, members, err := s.draft(ctx, c)
	if err != nil {
		return nil, err
	}

	tx := s.uowFactory.NewUnitOfWork(ctx)
	if err := tx.Begin(ctx); err != nil {
		return nil, err
	}
	defer tx.Rollback()

	clause, err := tx.BillClauseRepository().FindOne(ctx, specification.ByID{ID: clauseID}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, apperror.NewNotFoundError("clause", clauseID)
	}

	previous := clause.Content
	clause.PreviousContent = &previous
	clause.Title = draft.Title
	clause.Content = draft.Body
	clause.Rationale = draft.Rationale
	clause.SubmissionCount = members
	clause.Revision++
	clause.GenerationMethod = draft.Method
	clause.DrafterVersion = draft.Version
	if err := tx.BillClauseRepository().Update(ctx, clause); err != nil {
		return nil, fmt.Errorf("store clause: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metrics.ClauseDrafted(ctx, draft.Method)
	publishEvent(ctx, s.events, s.logger, events.New(events.ClauseRegenerated, map[string]interface{}{
		"clause_id":      clause.Id.String(),
		"section_number": clause.SectionNumber,
		"revision":       clause.Revision,
	}))
	s.logger.Info("CLAUSE", "Clause regenerated", map[string]interface{}{
		"clause_id": clause.Id,
		"revision":  clause.Revision,
		"method":    draft.Method,
	})

	return toDraftResponse(clause, draft, false), nil
}

// Withdraw takes a clause out of the bill. Its section number stays allocated.
func (s *clauseService) Withdraw(ctx context.Context, clauseID uuid.UUID) (*dto.ClauseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	clause, err := uow.BillClauseRepository().FindOne(ctx, specification.ByID{ID: clauseID}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, apperror.NewNotFoundError("clause", clauseID)
	}
	if clause.Status == entity.ClauseStatusWithdrawn {
		return toClauseResponse(clause), nil
	}

	clause.Status = entity.ClauseStatusWithdrawn
	if err := uow.BillClauseRepository().Update(ctx, clause); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.events, s.logger, events.New(events.ClauseWithdrawn, map[string]interface{}{
		"clause_id":      clause.Id.String(),
		"section_number": clause.SectionNumber,
	}))
	return toClauseResponse(clause), nil
}

func (s *clauseService) List(ctx context.Context, includeWithdrawn bool) ([]*dto.ClauseResponse, error) {
	specs := []specification.Specification{specification.BySectionOrder{}}
	if !includeWithdrawn {
		specs = append(specs, specification.ByStatus{Status: string(entity.ClauseStatusDraft)})
	}
	rows, err := s.uowFactory.NewUnitOfWork(ctx).BillClauseRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ClauseResponse, len(rows))
	for i, c := range rows {
		out[i] = toClauseResponse(c)
	}
	return out, nil
}

func (s *clauseService) Get(ctx context.Context, clauseID uuid.UUID) (*dto.ClauseResponse, error) {
	clause, err := s.uowFactory.NewUnitOfWork(ctx).BillClauseRepository().FindOne(ctx, specification.ByID{ID: clauseID})
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, apperror.NewNotFoundError("clause", clauseID)
	}
	return toClauseResponse(clause), nil
}

func (s *clauseService) FullBill(ctx context.Context) (*dto.FullBillResponse, error) {
	sections, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(billTitle))
	b.WriteString("\n\nA BILL ENTITLED\n\n")
	b.WriteString(billPreamble)
	b.WriteString("\n\nBE IT ENACTED by the Parliament of Ghana as follows:\n\n")
	for _, c := range sections {
		fmt.Fprintf(&b, "SECTION %d: %s\n%s\n\n", c.SectionNumber, c.Title, c.Content)
	}

	return &dto.FullBillResponse{
		Title:        billTitle,
		Version:      billVersion,
		Preamble:     billPreamble,
		FullText:     b.String(),
		Sections:     sections,
		TotalClauses: len(sections),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (s *clauseService) activeCluster(ctx context.Context, clusterID uuid.UUID) (*entity.Cluster, error) {
	c, err := s.uowFactory.NewUnitOfWork(ctx).ClusterRepository().FindOne(ctx, specification.ByID{ID: clusterID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperror.NewNotFoundError("cluster", clusterID)
	}
	if c.Status != entity.ClusterStatusActive {
		return nil, apperror.NewValidationError("cluster_id", "active", "cluster has been retired by a later clustering run")
	}
	return c, nil
}

// draft runs the drafter over the cluster's unrejected members in membership
// order and returns the draft with the member count it was written from.
func (s *clauseService) draft(ctx context.Context, c *entity.Cluster) (*drafter.Draft, int, error) {
	members, err := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository().FindAll(ctx,
		specification.ByClusterID{ClusterID: c.Id},
		specification.EligibleForClustering{},
		specification.MembershipOrder{},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("load cluster members: %w", err)
	}
	if len(members) == 0 {
		return nil, 0, apperror.NewValidationError("cluster_id", "members", "cluster has no submissions left after moderation")
	}

	texts := make([]string, len(members))
	for i, m := range members {
		texts[i] = m.NormalizedContent
	}
	draft, err := s.drafter.Draft(ctx, drafter.Input{
		ClusterID: c.Id,
		Label:     c.Label,
		Summary:   c.Summary,
		Keywords:  c.Keywords,
		Texts:     texts,
	})
	if err != nil {
		return nil, 0, err
	}
	if draft.FallbackReason != "" {
		s.logger.Warn("CLAUSE", "Generative drafting fell back to template", map[string]interface{}{
			"cluster_id": c.Id,
			"reason":     draft.FallbackReason,
		})
	}
	return draft, len(members), nil
}

func toDraftResponse(clause *entity.BillClause, draft *drafter.Draft, created bool) *dto.DraftClauseResponse {
	issues, suggestions := draft.Validation.Issues, draft.Validation.Suggestions
	if issues == nil {
		issues = []string{}
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return &dto.DraftClauseResponse{
		Clause:         toClauseResponse(clause),
		Created:        created,
		FallbackReason: draft.FallbackReason,
		Validation: &dto.ClauseValidationResponse{
			Valid:       draft.Validation.Valid,
			Issues:      issues,
			Suggestions: suggestions,
		},
	}
}
