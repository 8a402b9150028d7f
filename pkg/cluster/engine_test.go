package cluster

import (
	"context"
	"math/rand"
	"testing"

	"peoples-bill-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func embedPoints(t *testing.T, texts []string) []Point {
	t.Helper()
	p := embedding.NewHashingProvider(0)
	points := make([]Point, len(texts))
	for i, text := range texts {
		res, err := p.Generate(context.Background(), text, embedding.TaskTypeClustering)
		require.NoError(t, err)
		points[i] = Point{ID: uuid.New(), Vector: res.Embedding.Values}
	}
	return points
}

func TestRunSeparatesTwoTopics(t *testing.T) {
	points := embedPoints(t, []string{
		"Public officers must declare their assets and property every year.",
		"Severe penalties and prison terms for corruption convictions.",
		"Every public officer should declare assets and property publicly.",
		"Corruption must attract severe penalties including prison terms.",
		"Asset declaration by public officers must cover all property.",
	})

	part, err := NewEngine(DefaultOptions()).Run(context.Background(), points)
	require.NoError(t, err)
	require.False(t, part.NoOp)
	require.Len(t, part.Groups, 2)
	assert.Empty(t, part.Unclustered)

	assert.Equal(t, []int{0, 2, 4}, part.Groups[0].Members)
	assert.Equal(t, []int{1, 3}, part.Groups[1].Members)

	for _, g := range part.Groups {
		assert.Len(t, g.MemberIDs, len(g.Members))
		assert.Contains(t, g.Members, g.Representative)
		assert.Greater(t, g.Cohesion, 0.5)
		assert.LessOrEqual(t, g.Cohesion, 1.0+1e-9)
	}
}

func TestRunTooFewPointsIsNoOp(t *testing.T) {
	points := embedPoints(t, []string{
		"Public officers must declare their assets.",
		"Public officers should declare assets.",
	})

	part, err := NewEngine(DefaultOptions()).Run(context.Background(), points)
	require.NoError(t, err)
	assert.True(t, part.NoOp)
	assert.Empty(t, part.Groups)
}

func TestRunLeavesOutliersUnclustered(t *testing.T) {
	points := embedPoints(t, []string{
		"Public officers must declare their assets and property every year.",
		"Every public officer should declare assets and property publicly.",
		"Rural roads need tarring before the rainy season arrives.",
	})

	part, err := NewEngine(DefaultOptions()).Run(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, part.Groups, 1)
	assert.Equal(t, []int{0, 1}, part.Groups[0].Members)
	assert.Equal(t, []uuid.UUID{points[2].ID}, part.Unclustered)
}

func TestRunAttachesSingletonAboveFloor(t *testing.T) {
	// The third point is too far from the pair to merge but close enough to
	// join it at the end.
	points := []Point{
		{ID: uuid.New(), Vector: []float32{1, 0, 0}},
		{ID: uuid.New(), Vector: []float32{0.99, 0.14, 0}},
		{ID: uuid.New(), Vector: []float32{0.4, 0, 0.92}},
		{ID: uuid.New(), Vector: []float32{0, 0, -1}},
	}
	opts := DefaultOptions()

	part, err := NewEngine(opts).Run(context.Background(), points)
	require.NoError(t, err)
	require.Len(t, part.Groups, 1)
	assert.Equal(t, []int{0, 1, 2}, part.Groups[0].Members)
	assert.Equal(t, []uuid.UUID{points[3].ID}, part.Unclustered)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := embedPoints(t, []string{
		"Public officers must declare their assets and property every year.",
		"Every public officer should declare assets and property publicly.",
		"Asset declaration by public officers must cover all property.",
	})

	part, err := NewEngine(DefaultOptions()).Run(ctx, points)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, part)
}

func randomPoints(seed int64, n, dims int) []Point {
	rng := rand.New(rand.NewSource(seed))
	points := make([]Point, n)
	for i := range points {
		v := make([]float32, dims)
		for d := range v {
			v[d] = float32(rng.NormFloat64())
		}
		points[i] = Point{ID: uuid.New(), Vector: v}
	}
	return points
}

func TestRunMembershipIsExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)
	opts := DefaultOptions()
	opts.MergeThreshold = 0.2
	opts.FloorThreshold = 0.1

	properties.Property("every point lands in at most one cluster", prop.ForAll(
		func(seed int64, n int) bool {
			points := randomPoints(seed, n, 4)
			part, err := NewEngine(opts).Run(context.Background(), points)
			if err != nil {
				return false
			}

			seen := make(map[uuid.UUID]int)
			for _, g := range part.Groups {
				if len(g.Members) < opts.MinClusterSize {
					return false
				}
				for _, id := range g.MemberIDs {
					seen[id]++
				}
			}
			for _, id := range part.Unclustered {
				seen[id]++
			}
			for _, p := range points {
				if n >= opts.MinEligible && seen[p.ID] != 1 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestRunIsDeterministic(t *testing.T) {
	points := randomPoints(42, 30, 6)
	opts := DefaultOptions()
	opts.MergeThreshold = 0.3

	a, err := NewEngine(opts).Run(context.Background(), points)
	require.NoError(t, err)
	b, err := NewEngine(opts).Run(context.Background(), points)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
