package service

import (
	"context"
	"encoding/json"
	"errors"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/internal/repository/unitofwork"
	"peoples-bill-be/internal/tracer"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	// Consume starts processing embedding jobs until ctx is done.
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	clustering IClusteringService
	metrics    *tracer.Metrics
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	clustering IClusteringService,
	metrics *tracer.Metrics,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		embedder:   embedder,
		clustering: clustering,
		metrics:    metrics,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()
	return nil
}

// processMessage embeds one submission and tries to attach it to an existing
// cluster. Embedding failures are acked: the provider already retried, and
// the next full run re-embeds whatever is missing.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedSubmissionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal embedding job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	repo := cs.uowFactory.NewUnitOfWork(ctx).SubmissionRepository()
	sub, err := repo.FindOne(ctx, specification.ByID{ID: payload.SubmissionId})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to load submission", map[string]interface{}{
			"submission_id": payload.SubmissionId,
			"error":         err.Error(),
		})
		msg.Nack()
		return
	}
	if sub == nil {
		msg.Ack()
		return
	}

	model := cs.embedder.ModelVersion()
	if !sub.HasEmbedding(model) {
		res, err := cs.embedder.Generate(ctx, sub.NormalizedContent, embedding.TaskTypeClustering)
		if err != nil {
			fields := map[string]interface{}{
				"submission_id": sub.Id,
				"error":         err.Error(),
			}
			var embedErr *apperror.EmbeddingServiceError
			if errors.As(err, &embedErr) {
				fields["attempts"] = embedErr.Attempts
			}
			cs.logger.Warn("CONSUMER", "Embedding failed, leaving submission for the next run", fields)
			cs.metrics.EmbeddingFailed(ctx, 1)
			msg.Ack()
			return
		}
		if err := repo.UpdateEmbedding(ctx, sub.Id, res.Embedding.Values, res.ModelVersion); err != nil {
			cs.logger.Error("CONSUMER", "Failed to store embedding", map[string]interface{}{
				"submission_id": sub.Id,
				"error":         err.Error(),
			})
			msg.Nack()
			return
		}
	}

	attached, err := cs.clustering.AttachOne(ctx, sub.Id)
	if err != nil {
		cs.logger.Warn("CONSUMER", "Incremental attach failed", map[string]interface{}{
			"submission_id": sub.Id,
			"error":         err.Error(),
		})
	}
	cs.logger.Debug("CONSUMER", "Submission embedded", map[string]interface{}{
		"submission_id": sub.Id,
		"attached":      attached,
	})
	msg.Ack()
}
