package service

import (
	"context"

	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/pkg/events"
)

// publishEvent is fire and forget: the domain write already happened.
func publishEvent(ctx context.Context, pub events.Publisher, log logger.ILogger, event events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
