package service

import (
	"context"

	"doc-intelligence-be/internal/pkg/logger"
	"doc-intelligence-be/pkg/events"
	pktNats "doc-intelligence-be/pkg/nats"

	"github.com/google/uuid"
)

const (
	pipelineEventSubject = "events.>"
	pipelineEventDurable = "pipeline-event-worker"
)

// EventSubscriber is implemented by *nats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// PipelineEventService relays pipeline events from the bus to websocket
// subscribers of the affected project. With auto embedding enabled it also
// queues an embedding run once a project finishes ingestion.
type PipelineEventService struct {
	subscriber       EventSubscriber
	notifier         ProgressNotifier
	embeddingService IEmbeddingService
	autoEmbed        bool
	logger           logger.ILogger
}

func NewPipelineEventService(
	sub EventSubscriber,
	notifier ProgressNotifier,
	embeddingService IEmbeddingService,
	autoEmbed bool,
	log logger.ILogger,
) *PipelineEventService {
	return &PipelineEventService{
		subscriber:       sub,
		notifier:         notifier,
		embeddingService: embeddingService,
		autoEmbed:        autoEmbed,
		logger:           log,
	}
}

func (s *PipelineEventService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, pipelineEventSubject, pipelineEventDurable, s.handleEvent); err != nil {
		s.logger.Error("PipelineEventService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("PipelineEventService", "Listening to "+pipelineEventSubject, nil)
	return nil
}

func (s *PipelineEventService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawID, _ := payload["project_id"].(string)
	projectID, err := uuid.Parse(rawID)
	if err != nil {
		s.logger.Warn("PipelineEventService", "Event without project id", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	if s.notifier != nil {
		s.notifier.SendToProject(projectID, event.EventType(), payload)
	}

	if s.autoEmbed && event.EventType() == events.ProjectProcessed {
		if _, err := s.embeddingService.Enqueue(ctx, projectID); err != nil {
			s.logger.Error("PipelineEventService", "Failed to queue embedding run", map[string]interface{}{"project_id": projectID, "error": err.Error()})
			return err
		}
		s.logger.Info("PipelineEventService", "Queued embedding run", map[string]interface{}{"project_id": projectID})
	}

	return nil
}
