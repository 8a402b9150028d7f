package service

import (
	"context"

	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/websocket"
	"peoples-bill-be/pkg/events"
	pktNats "peoples-bill-be/pkg/nats"
)

const relayDurable = "bill-ws-relay"

// NoticeDelivery pushes live notices to connected clients. Implemented by the
// websocket hub.
type NoticeDelivery interface {
	Broadcast(notice websocket.Notice)
}

// relayed lists the events the public bill page reacts to.
var relayed = map[string]bool{
	events.ClusteringCompleted: true,
	events.ClauseDrafted:       true,
	events.ClauseRegenerated:   true,
	events.ClauseWithdrawn:     true,
	events.VoteRecorded:        true,
}

// NotificationService relays domain events from the broker to websocket clients.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NoticeDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NoticeDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *NotificationService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, "events.>", relayDurable, s.HandleEvent); err != nil {
		return err
	}
	s.logger.Info("NOTIFICATION", "Relaying bill events to websocket clients", nil)
	return nil
}

// HandleEvent forwards public events and ignores the rest. Submission events
// carry citizen data and are never relayed.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	if !relayed[event.EventType()] {
		return nil
	}
	s.delivery.Broadcast(websocket.Notice{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	return nil
}
