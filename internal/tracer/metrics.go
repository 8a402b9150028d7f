package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline counters. Instruments come from the global
// meter provider, so they are no-ops until an SDK provider is installed.
type Metrics struct {
	submissions       metric.Int64Counter
	embeddingFailures metric.Int64Counter
	clusteringRuns    metric.Int64Counter
	runDuration       metric.Float64Histogram
	clauses           metric.Int64Counter
	votes             metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(ServiceName)
	m := &Metrics{}
	var err error

	if m.submissions, err = meter.Int64Counter("bill.submissions.total",
		metric.WithDescription("Accepted citizen submissions"),
		metric.WithUnit("{submission}")); err != nil {
		return nil, err
	}
	if m.embeddingFailures, err = meter.Int64Counter("bill.embedding.failures",
		metric.WithDescription("Submissions whose embedding could not be produced"),
		metric.WithUnit("{submission}")); err != nil {
		return nil, err
	}
	if m.clusteringRuns, err = meter.Int64Counter("bill.clustering.runs",
		metric.WithDescription("Clustering runs by mode and outcome"),
		metric.WithUnit("{run}")); err != nil {
		return nil, err
	}
	if m.runDuration, err = meter.Float64Histogram("bill.clustering.duration",
		metric.WithDescription("Clustering run duration"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.clauses, err = meter.Int64Counter("bill.clauses.drafted",
		metric.WithDescription("Drafted or regenerated clauses by method"),
		metric.WithUnit("{clause}")); err != nil {
		return nil, err
	}
	if m.votes, err = meter.Int64Counter("bill.votes.total",
		metric.WithDescription("Recorded votes by kind"),
		metric.WithUnit("{vote}")); err != nil {
		return nil, err
	}
	return m, nil
}

// MustMetrics is NewMetrics for wiring code where the global provider cannot fail.
func MustMetrics() *Metrics {
	m, err := NewMetrics()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) SubmissionReceived(ctx context.Context, region, channel string) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("channel", channel),
	))
}

func (m *Metrics) EmbeddingFailed(ctx context.Context, n int) {
	if n > 0 {
		m.embeddingFailures.Add(ctx, int64(n))
	}
}

func (m *Metrics) RunFinished(ctx context.Context, mode, status string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("mode", mode), attribute.String("status", status))
	m.clusteringRuns.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, seconds, attrs)
}

func (m *Metrics) ClauseDrafted(ctx context.Context, method string) {
	m.clauses.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) VoteRecorded(ctx context.Context, kind string) {
	m.votes.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
