package service

import (
	"context"
	"errors"
	"testing"

	"peoples-bill-be/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterDetailSummarizesMembers(t *testing.T) {
	env, clusters := clusteredEnv(t)
	ctx := context.Background()
	svc := NewClusterService(env.factory)

	clause, err := env.clauses.Generate(ctx, clusters[0].Id)
	require.NoError(t, err)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.NotNil(t, listed[0].ClauseId)
	assert.Equal(t, clause.Clause.Id, *listed[0].ClauseId)
	assert.Nil(t, listed[1].ClauseId)

	detail, err := svc.Get(ctx, clusters[0].Id)
	require.NoError(t, err)
	assert.Len(t, detail.Submissions, 3)
	assert.Equal(t, map[string]int{"Ashanti": 3}, detail.Demographics.Regions)
	assert.Len(t, detail.Demographics.AgeGroups, 5)
	assert.Empty(t, detail.Demographics.TopOccupations)

	_, err = svc.Get(ctx, uuid.New())
	var notFound *apperror.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}
