// Package observability wires OpenTelemetry for the gateway: a tracer
// provider with a configurable exporter and sampler, a meter provider
// backed by the Prometheus exporter, and instrumentation wrappers the rest
// of the service builds on.
package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finadvisor/internal/models"
	"finadvisor/internal/version"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultServiceName = "finadvisor"

// Provider holds the configured OpenTelemetry pieces for shutdown.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	promExporter   *prometheus.Exporter
}

// PrometheusExporter returns the exporter backing the scrape endpoint, or
// nil when metrics are disabled.
func (p *Provider) PrometheusExporter() *prometheus.Exporter {
	return p.promExporter
}

// Shutdown flushes and stops whichever providers were started.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error

	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Setup builds the providers the config asks for and registers them as the
// process-global OpenTelemetry providers. The caller shuts the returned
// Provider down on exit.
func Setup(metrics models.MetricsConfig, obs models.ObservabilityConfig, ver version.Info) (*Provider, error) {
	res, err := newResource(obs, ver)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{}

	if obs.Tracing.Enabled {
		tp, err := newTracerProvider(res, obs.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		p.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	if metrics.Enabled {
		promExporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.promExporter = promExporter

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(promExporter),
		)
		p.meterProvider = mp
		otel.SetMeterProvider(mp)

		if err := registerBuildInfo(mp, ver); err != nil {
			return nil, fmt.Errorf("failed to register build info metric: %w", err)
		}
	}

	return p, nil
}

// newResource describes this process to every exporter: service identity,
// build provenance, and where it runs.
func newResource(obs models.ObservabilityConfig, ver version.Info) (*resource.Resource, error) {
	serviceName := strings.TrimSpace(obs.ServiceName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	return resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ver.Version),
			attribute.String("service.instance.id", ver.InstanceID),
			attribute.String("host.name", ver.Hostname),
			attribute.String("git.commit", ver.GitCommit),
			attribute.String("build.date", ver.BuildDate),
			attribute.String("deployment.environment", deploymentEnvironment()),
		),
	)
}

// registerBuildInfo publishes a constant gauge labeled with the running
// build so dashboards can join any metric against the deployed version.
func registerBuildInfo(mp *sdkmetric.MeterProvider, ver version.Info) error {
	meter := mp.Meter("finadvisor/observability")

	gauge, err := meter.Int64ObservableGauge("finadvisor.build.info",
		metric.WithDescription("Build identity of the running process, always 1"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, 1, metric.WithAttributes(
			attribute.String("version", ver.Version),
			attribute.String("commit", ver.GitCommit),
			attribute.String("go_version", ver.GoVersion),
		))
		return nil
	}, gauge)
	return err
}

func newTracerProvider(res *resource.Resource, cfg models.TracingConfig) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.Exporter, err)
	}

	// An upstream parent's sampling decision wins; the configured rate only
	// applies to traces this service starts.
	var root sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		root = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(root)),
	)

	return tp, nil
}

// deploymentEnvironment resolves the environment label attached to all
// telemetry. FINADVISOR_ENV wins over the generic variables.
func deploymentEnvironment() string {
	for _, key := range []string{"FINADVISOR_ENV", "DEPLOYMENT_ENV", "ENVIRONMENT"} {
		if env := strings.TrimSpace(os.Getenv(key)); env != "" {
			return env
		}
	}
	return "development"
}
