package nats

import (
	"encoding/json"
	"strings"
	"time"

	"peoples-bill-be/pkg/events"
)

const (
	streamName    = "EVENTS"
	subjectPrefix = "events."
)

type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func encode(event events.Event) ([]byte, error) {
	return json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
}

// decode accepts both envelopes and bare payloads published by older
// producers; for the latter the type is taken from the subject.
func decode(subject string, raw []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.BaseEvent{}, err
	}
	if env.Type == "" || env.Data == nil {
		var payload map[string]interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return events.BaseEvent{}, err
		}
		env = envelope{Type: strings.TrimPrefix(subject, subjectPrefix), Data: payload, OccurredAt: time.Now().UTC()}
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

func subjectFor(eventType string) string {
	return subjectPrefix + eventType
}
