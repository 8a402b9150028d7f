package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/events"
	"peoples-bill-be/pkg/normalizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type ISubmissionService interface {
	Submit(ctx context.Context, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error)
	List(ctx context.Context, req *dto.ListSubmissionsRequest) (*dto.SubmissionListResponse, error)
	Moderate(ctx context.Context, req *dto.ModerateSubmissionRequest) (*dto.SubmissionResponse, error)
}

type submissionService struct {
	uowFactory unitofwork.RepositoryFactory
	queue      message.Publisher
	topicName  string
	events     events.Publisher
	metrics    *tracer.Metrics
	logger     logger.ILogger
}

func NewSubmissionService(
	uowFactory unitofwork.RepositoryFactory,
	queue message.Publisher,
	topicName string,
	publisher events.Publisher,
	metrics *tracer.Metrics,
	log logger.ILogger,
) ISubmissionService {
	return &submissionService{
		uowFactory: uowFactory,
		queue:      queue,
		topicName:  topicName,
		events:     publisher,
		metrics:    metrics,
		logger:     log,
	}
}

// Submit validates and stores a submission, then queues it for embedding.
// A queueing failure does not fail intake: the next clustering run embeds
// anything that was missed.
func (s *submissionService) Submit(ctx context.Context, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error) {
	normalized, err := normalizer.Normalize(normalizer.Input{
		Content:    req.Content,
		Region:     req.Region,
		Language:   req.Language,
		Age:        req.Age,
		Occupation: req.Occupation,
	})
	if err != nil {
		return nil, err
	}

	channel := entity.SubmissionChannel(req.Channel)
	if channel == "" {
		channel = entity.ChannelWeb
	}
	if !channel.Valid() {
		return nil, apperror.NewValidationError("channel", "oneof", "channel must be one of: web, sms, ussd")
	}

	submission := &entity.Submission{
		Id:                uuid.New(),
		Content:           normalized.Content,
		NormalizedContent: normalized.Normalized,
		Region:            normalized.Region,
		Age:               normalized.Age,
		Occupation:        normalized.Occupation,
		Language:          normalized.Language,
		Channel:           channel,
		Status:            entity.SubmissionStatusPending,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubmissionRepository().Create(ctx, submission); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	s.enqueueEmbedding(submission.Id)
	s.metrics.SubmissionReceived(ctx, submission.Region, string(submission.Channel))
	s.publish(ctx, events.New(events.SubmissionReceived, map[string]interface{}{
		"submission_id": submission.Id.String(),
		"region":        submission.Region,
	}))

	s.logger.Info("SUBMISSION", "Submission received", map[string]interface{}{
		"submission_id": submission.Id,
		"region":        submission.Region,
		"channel":       submission.Channel,
	})
	return toSubmissionResponse(submission), nil
}

func (s *submissionService) enqueueEmbedding(id uuid.UUID) {
	payload, err := json.Marshal(dto.EmbedSubmissionMessage{SubmissionId: id})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.queue.Publish(s.topicName, msg); err != nil {
		s.logger.Warn("SUBMISSION", "Failed to queue embedding job", map[string]interface{}{
			"submission_id": id,
			"error":         err.Error(),
		})
	}
}

func (s *submissionService) List(ctx context.Context, req *dto.ListSubmissionsRequest) (*dto.SubmissionListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var filters []specification.Specification
	if req.Region != "" {
		filters = append(filters, specification.ByRegion{Region: req.Region})
	}
	if req.Status != "" {
		filters = append(filters, specification.ByStatus{Status: req.Status})
	}
	if req.Search != "" {
		filters = append(filters, specification.ContentSearch{Query: req.Search})
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository()
	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	query := append(append([]specification.Specification{}, filters...),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	rows, err := repo.FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	return &dto.SubmissionListResponse{
		Items:  toSubmissionResponses(rows),
		Total:  total,
		Limit:  limit,
		Offset: req.Offset,
	}, nil
}

// Moderate changes the status of a submission. Rejected submissions stop
// feeding clause drafts at once and leave their cluster at the next full run.
func (s *submissionService) Moderate(ctx context.Context, req *dto.ModerateSubmissionRequest) (*dto.SubmissionResponse, error) {
	status := entity.SubmissionStatus(req.Status)
	if !status.Valid() {
		return nil, apperror.NewValidationError("status", "oneof", "status must be one of: pending, approved, rejected")
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).SubmissionRepository()
	existing, err := repo.FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NewNotFoundError("submission", req.Id)
	}

	// Only the moderation columns are written; cluster_id and the embedding
	// belong to the clustering pipeline.
	if err := repo.UpdateStatus(ctx, req.Id, status, time.Now().UTC()); err != nil {
		return nil, err
	}
	submission, err := repo.FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, apperror.NewNotFoundError("submission", req.Id)
	}

	s.publish(ctx, events.New(events.SubmissionModerated, map[string]interface{}{
		"submission_id": submission.Id.String(),
		"status":        string(status),
	}))
	return toSubmissionResponse(submission), nil
}

func (s *submissionService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.events, s.logger, event)
}
