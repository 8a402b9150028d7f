package service

import (
	"context"
	"sync"
	"testing"

	"peoples-bill-be/internal/pkg/logger"
	"peoples-bill-be/internal/websocket"
	"peoples-bill-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDelivery struct {
	mu      sync.Mutex
	notices []websocket.Notice
}

func (f *fakeDelivery) Broadcast(n websocket.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}

func TestHandleEventRelaysOnlyPublicEvents(t *testing.T) {
	delivery := &fakeDelivery{}
	svc := NewNotificationService(nil, delivery, logger.NewNop())
	ctx := context.Background()

	vote := events.New(events.VoteRecorded, map[string]interface{}{"approval_rate": 75.0})
	require.NoError(t, svc.HandleEvent(ctx, vote))
	require.NoError(t, svc.HandleEvent(ctx, events.New(events.SubmissionReceived, map[string]interface{}{"region": "Ashanti"})))
	require.NoError(t, svc.HandleEvent(ctx, events.New(events.ClauseDrafted, nil)))

	require.Len(t, delivery.notices, 2)
	assert.Equal(t, events.VoteRecorded, delivery.notices[0].Type)
	assert.Equal(t, 75.0, delivery.notices[0].Data["approval_rate"])
	assert.Equal(t, vote.Timestamp(), delivery.notices[0].OccurredAt)
	assert.Equal(t, events.ClauseDrafted, delivery.notices[1].Type)
}
