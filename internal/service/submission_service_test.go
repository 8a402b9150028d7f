package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"peoples-bill-be/internal/dto"
	"peoples-bill-be/internal/entity"
	"peoples-bill-be/internal/repository/specification"
	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embedTopic = "submission.embed"

func newSubmissionService(t *testing.T, env *testEnv) (ISubmissionService, *gochannel.GoChannel) {
	t.Helper()
	queue := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = queue.Close() })
	return NewSubmissionService(env.factory, queue, embedTopic, env.recorder, env.metrics, env.log), queue
}

func TestSubmitStoresAndQueuesEmbedding(t *testing.T) {
	env := newTestEnv(t)
	svc, queue := newSubmissionService(t, env)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs, err := queue.Subscribe(ctx, embedTopic)
	require.NoError(t, err)

	age := 34
	content := "  Public officers must   declare their assets every year.  "
	res, err := svc.Submit(ctx, &dto.CreateSubmissionRequest{
		Content: content,
		Region:  "Ashanti",
		Age:     &age,
	})
	require.NoError(t, err)
	assert.Equal(t, content, res.Content)
	assert.Equal(t, "Ashanti", res.Region)
	require.NotNil(t, res.Age)
	assert.Equal(t, 34, *res.Age)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, string(entity.ChannelWeb), res.Channel)
	assert.Equal(t, string(entity.SubmissionStatusPending), res.Status)

	select {
	case msg := <-jobs:
		var job dto.EmbedSubmissionMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &job))
		assert.Equal(t, res.Id, job.SubmissionId)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no embedding job queued")
	}
	assert.Contains(t, env.recorder.Types(), events.SubmissionReceived)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newSubmissionService(t, env)
	ctx := context.Background()

	cases := map[string]*dto.CreateSubmissionRequest{
		"content": {Content: "ok", Region: "Ashanti"},
		"region":  {Content: "Public officers must declare their assets.", Region: "Atlantis"},
		"channel": {Content: "Public officers must declare their assets.", Region: "Ashanti", Channel: "fax"},
	}
	for field, req := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Submit(ctx, req)
			var vErr *apperror.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, field, vErr.Field)
		})
	}

	list, err := svc.List(ctx, &dto.ListSubmissionsRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestListFiltersAndModerate(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newSubmissionService(t, env)
	ctx := context.Background()
	subs := env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)

	page, err := svc.List(ctx, &dto.ListSubmissionsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, subs[4].Id, page.Items[0].Id)

	found, err := svc.List(ctx, &dto.ListSubmissionsRequest{Search: "corruption"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Total)

	moderated, err := svc.Moderate(ctx, &dto.ModerateSubmissionRequest{Id: subs[0].Id, Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SubmissionStatusRejected), moderated.Status)

	rejected, err := svc.List(ctx, &dto.ListSubmissionsRequest{Status: "rejected"})
	require.NoError(t, err)
	require.Len(t, rejected.Items, 1)
	assert.Equal(t, subs[0].Id, rejected.Items[0].Id)

	var vErr *apperror.ValidationError
	_, err = svc.Moderate(ctx, &dto.ModerateSubmissionRequest{Id: subs[0].Id, Status: "deleted"})
	assert.True(t, errors.As(err, &vErr))
}

func TestModerateLeavesClusteringColumnsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subs := env.seed(t, append(append([]string{}, assetTexts...), penaltyTexts...)...)

	// A full run commits between the moderation read and its write.
	var once sync.Once
	hooked := &hookedFactory{RepositoryFactory: env.factory}
	hooked.afterSubmissionFind = func() {
		once.Do(func() {
			_, err := env.clustering.RunFull(ctx)
			assert.NoError(t, err)
		})
	}
	queue := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = queue.Close() })
	svc := NewSubmissionService(hooked, queue, embedTopic, env.recorder, env.metrics, env.log)

	res, err := svc.Moderate(ctx, &dto.ModerateSubmissionRequest{Id: subs[0].Id, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.SubmissionStatusApproved), res.Status)

	stored, err := env.factory.NewUnitOfWork(ctx).SubmissionRepository().FindOne(ctx, specification.ByID{ID: subs[0].Id})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedAt)
	require.NotNil(t, stored.ClusterId)
	assert.NotEmpty(t, stored.Embedding)
	assert.Equal(t, env.embedder.ModelVersion(), stored.EmbeddingModel)
}
