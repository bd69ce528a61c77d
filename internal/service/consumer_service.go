package service

import (
	"context"
	"encoding/json"
	"errors"

	"doc-intelligence-be/internal/dto"
	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber       message.Subscriber
	topicName        string
	embeddingService IEmbeddingService
	logger           logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	embeddingService IEmbeddingService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:       subscriber,
		topicName:        topicName,
		embeddingService: embeddingService,
		logger:           log,
	}
}

// Consume subscribes to the embedding job topic and processes jobs one at a
// time until ctx is cancelled.
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

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedProjectMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed jobs never succeed
		return
	}

	cs.logger.Info("ConsumerService", "Processing embedding job", map[string]interface{}{"project_id": payload.ProjectId})

	res, err := cs.embeddingService.GenerateEmbeddings(ctx, payload.ProjectId)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConfiguration) {
			cs.logger.Warn("ConsumerService", "Dropping embedding job", map[string]interface{}{"project_id": payload.ProjectId, "error": err.Error()})
			msg.Ack()
			return
		}
		cs.logger.Error("ConsumerService", "Embedding job failed", map[string]interface{}{"project_id": payload.ProjectId, "error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", "Embedding job finished", map[string]interface{}{
		"project_id":       payload.ProjectId,
		"status":           res.Status,
		"processed_chunks": res.ProcessedChunks,
		"failed_chunks":    res.FailedChunks,
	})
	msg.Ack()
}
