package events

import (
	"context"
	"sync"
	"time"
)

const (
	SubmissionReceived  = "SUBMISSION_RECEIVED"
	SubmissionModerated = "SUBMISSION_MODERATED"
	ClusteringCompleted = "CLUSTERING_COMPLETED"
	ClauseDrafted       = "CLAUSE_DRAFTED"
	ClauseRegenerated   = "CLAUSE_REGENERATED"
	ClauseWithdrawn     = "CLAUSE_WITHDRAWN"
	VoteRecorded        = "VOTE_RECORDED"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the unique code for this event (e.g. "VOTE_RECORDED").
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Publisher delivers domain events to whoever is listening. Publishing is
// best effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// NopPublisher discards every event. Used when no broker is configured.
func NopPublisher() Publisher {
	return nopPublisher{}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}
