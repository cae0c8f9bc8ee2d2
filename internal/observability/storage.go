package observability

import (
	"context"
	"time"

	"finadvisor/internal/models"
	"finadvisor/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("finadvisor/storage")
	meter := otel.Meter("finadvisor/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStorage) SaveQuery(ctx context.Context, record *models.QueryRecord) error {
	ctx, span := s.startSpan(ctx, "SaveQuery",
		attribute.String("query_id", record.ID),
		attribute.String("risk_level", string(record.RiskLevel)),
	)
	start := time.Now()
	err := s.inner.SaveQuery(ctx, record)
	s.record(ctx, span, "SaveQuery", start, err)
	return err
}

func (s *InstrumentedStorage) Queries(ctx context.Context, limit int) ([]*models.QueryRecord, error) {
	ctx, span := s.startSpan(ctx, "Queries", attribute.Int("limit", limit))
	start := time.Now()
	result, err := s.inner.Queries(ctx, limit)
	s.record(ctx, span, "Queries", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetQuery(ctx context.Context, id string) (*models.QueryRecord, error) {
	ctx, span := s.startSpan(ctx, "GetQuery", attribute.String("query_id", id))
	start := time.Now()
	result, err := s.inner.GetQuery(ctx, id)
	s.record(ctx, span, "GetQuery", start, err)
	return result, err
}

func (s *InstrumentedStorage) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := s.startSpan(ctx, "DeleteQueriesBefore",
		attribute.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
	)
	start := time.Now()
	deleted, err := s.inner.DeleteQueriesBefore(ctx, cutoff)
	span.SetAttributes(attribute.Int("deleted", deleted))
	s.record(ctx, span, "DeleteQueriesBefore", start, err)
	return deleted, err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
