package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Answer outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeRefused  = "refused"
	OutcomeError    = "error"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	AnswersTotal      metric.Int64Counter
	IndexBuilds       metric.Int64Counter
	IndexBuildTime    metric.Float64Histogram
	IndexedPassages   metric.Int64Gauge
	AuditEventsLogged metric.Int64Counter
}

func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("hr-rag-assistant")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	answersTotal, err := meter.Int64Counter(
		"rag.answers.total",
		metric.WithDescription("Answers by outcome"),
	)
	if err != nil {
		return nil, err
	}

	indexBuilds, err := meter.Int64Counter(
		"index.builds.total",
		metric.WithDescription("Vector index builds by status"),
	)
	if err != nil {
		return nil, err
	}

	indexBuildTime, err := meter.Float64Histogram(
		"index.build.duration",
		metric.WithDescription("Full rebuild duration (extraction plus embedding) in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	indexedPassages, err := meter.Int64Gauge(
		"index.passages",
		metric.WithDescription("Passages in the published snapshot"),
	)
	if err != nil {
		return nil, err
	}

	auditEventsLogged, err := meter.Int64Counter(
		"audit.events.logged",
		metric.WithDescription("Total audit events logged"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		AnswersTotal:      answersTotal,
		IndexBuilds:       indexBuilds,
		IndexBuildTime:    indexBuildTime,
		IndexedPassages:   indexedPassages,
		AuditEventsLogged: auditEventsLogged,
	}, nil
}

func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	)
	m.RequestCounter.Add(context.Background(), 1, attrs)
	m.RequestDuration.Record(context.Background(), duration, attrs)
}

func (m *Metrics) RecordAnswer(outcome string) {
	if m == nil {
		return
	}
	m.AnswersTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("rag.outcome", outcome)))
}

// RecordIndexBuild records one rebuild attempt; passages is only reported on success.
func (m *Metrics) RecordIndexBuild(duration float64, passages int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("index.status", status))
	m.IndexBuilds.Add(context.Background(), 1, attrs)
	m.IndexBuildTime.Record(context.Background(), duration, attrs)
	if err == nil {
		m.IndexedPassages.Record(context.Background(), int64(passages))
	}
}

func (m *Metrics) RecordAuditEvent(action string, success bool) {
	if m == nil {
		return
	}
	m.AuditEventsLogged.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("audit.action", action),
		attribute.Bool("audit.success", success),
	))
}
