package service

import (
	"context"
	"errors"
	"fmt"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/events"
	"peoples-bill-be/pkg/region"
	"peoples-bill-be/pkg/votes"

	"github.com/google/uuid"
)

type IVoteService interface {
	Cast(ctx context.Context, req *dto.CastVoteRequest) (*dto.VoteResponse, error)
	// Tally recomputes a clause's counts from the vote log.
	Tally(ctx context.Context, clauseID uuid.UUID) (*votes.Tally, error)
}

type voteService struct {
	uowFactory unitofwork.RepositoryFactory
	events     events.Publisher
	metrics    *tracer.Metrics
	logger     logger.ILogger
}

func NewVoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	metrics *tracer.Metrics,
	log logger.ILogger,
) IVoteService {
	return &voteService{
		uowFactory: uowFactory,
		events:     publisher,
		metrics:    metrics,
		logger:     log,
	}
}

// Cast records a vote and recomputes the clause's approval rate from the log.
// The clause row stays locked for the whole transaction, so concurrent votes
// on one clause are applied one after the other.
func (s *voteService) Cast(ctx context.Context, req *dto.CastVoteRequest) (*dto.VoteResponse, error) {
	kind, ok := votes.ParseKind(req.Vote)
	if !ok {
		return nil, apperror.NewValidationError("vote", "oneof", "vote must be one of: approve, reject")
	}
	if req.Region != nil && *req.Region != "" && !region.IsValid(*req.Region) {
		return nil, apperror.NewValidationError("region", "region", "invalid region")
	}

	vote := &entity.Vote{
		Id:       uuid.New(),
		ClauseId: req.ClauseId,
		Kind:     kind,
	}
	if req.Region != nil && *req.Region != "" {
		vote.Region = req.Region
	}
	if hash := votes.HashVoterToken(req.VoterToken); hash != "" {
		vote.VoterHash = &hash
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	clause, err := uow.BillClauseRepository().FindOne(ctx, specification.ByID{ID: req.ClauseId}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, apperror.NewNotFoundError("clause", req.ClauseId)
	}
	if clause.Status == entity.ClauseStatusWithdrawn {
		return nil, apperror.NewValidationError("clause_id", "withdrawn", "clause has been withdrawn from the bill")
	}

	if err := uow.VoteRepository().Create(ctx, vote); err != nil {
		var dup *apperror.DuplicateVoteError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, fmt.Errorf("store vote: %w", err)
	}

	tally, err := uow.VoteRepository().TallyByClause(ctx, clause.Id)
	if err != nil {
		return nil, fmt.Errorf("recount votes: %w", err)
	}
	clause.Approvals = tally.Approvals
	clause.Rejections = tally.Rejections
	clause.ApprovalRate = votes.ApprovalRate(tally.Approvals, tally.Rejections)
	if err := uow.BillClauseRepository().Update(ctx, clause); err != nil {
		return nil, fmt.Errorf("store approval rate: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.metrics.VoteRecorded(ctx, string(kind))
	publishEvent(ctx, s.events, s.logger, events.New(events.VoteRecorded, map[string]interface{}{
		"clause_id":     clause.Id.String(),
		"approval_rate": clause.ApprovalRate,
		"approvals":     clause.Approvals,
		"rejections":    clause.Rejections,
	}))

	return &dto.VoteResponse{
		ClauseId:     clause.Id,
		ApprovalRate: clause.ApprovalRate,
		Approvals:    clause.Approvals,
		Rejections:   clause.Rejections,
	}, nil
}

func (s *voteService) Tally(ctx context.Context, clauseID uuid.UUID) (*votes.Tally, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	clause, err := uow.BillClauseRepository().FindOne(ctx, specification.ByID{ID: clauseID})
	if err != nil {
		return nil, err
	}
	if clause == nil {
		return nil, apperror.NewNotFoundError("clause", clauseID)
	}

	counts, err := uow.VoteRepository().TallyByClause(ctx, clauseID)
	if err != nil {
		return nil, err
	}
	return &votes.Tally{
		Approvals:  counts.Approvals,
		Rejections: counts.Rejections,
		Rate:       votes.ApprovalRate(counts.Approvals, counts.Rejections),
	}, nil
}
