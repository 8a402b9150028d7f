package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "hashing")
	cfg := Load()

	assert.Equal(t, "hashing", cfg.Ai.EmbeddingProvider)
	assert.Equal(t, 0.45, cfg.Clustering.MergeThreshold)
	assert.Equal(t, 0.35, cfg.Clustering.FloorThreshold)
	assert.Equal(t, 0.60, cfg.Clustering.AttachThreshold)
	assert.Equal(t, 3, cfg.Clustering.MinEligible)
	assert.Equal(t, 2, cfg.Clustering.MinClusterSize)
	assert.Equal(t, 20, cfg.App.PublicRatePerMinute)
	assert.Equal(t, 5, cfg.App.PublicRateBurst)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLUSTER_MERGE_THRESHOLD", "0.5")
	t.Setenv("STATS_CACHE_TTL", "90s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GENERATION_WORKERS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 0.5, cfg.Clustering.MergeThreshold)
	assert.Equal(t, 90*time.Second, cfg.Stats.CacheTTL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 2, cfg.Ai.GenerationWorkers)
}
