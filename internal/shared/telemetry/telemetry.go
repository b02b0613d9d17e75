package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Config struct {
	ServiceName  string
	OTLPEndpoint string
	// MetricsPort serves /metrics when set. One-shot commands leave it empty.
	MetricsPort string
	// Registry receives the exported metrics. Nil means the process default.
	Registry *prometheus.Registry
}

// shutdowns stops registered components in order and joins their errors.
type shutdowns []func(context.Context) error

func (s shutdowns) run(ctx context.Context) error {
	var errs []error
	for _, fn := range s {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown errors: %w", err)
	}
	return nil
}

// Init installs the global meter and tracer providers and the W3C
// propagator. Traces are exported only when an OTLP endpoint is configured.
// The returned function flushes and stops everything Init started.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	var stops shutdowns
	shutdown := func(ctx context.Context) error { return stops.run(ctx) }

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	))
	if err != nil {
		return shutdown, fmt.Errorf("failed to create resource: %w", err)
	}

	meters, err := newMeterProvider(res, cfg.Registry)
	if err != nil {
		return shutdown, err
	}
	otel.SetMeterProvider(meters)
	stops = append(stops, meters.Shutdown)

	if cfg.OTLPEndpoint != "" {
		tracers, err := newTracerProvider(ctx, res, cfg.OTLPEndpoint)
		if err != nil {
			return shutdown, err
		}
		otel.SetTracerProvider(tracers)
		stops = append(stops, tracers.Shutdown)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.MetricsPort != "" {
		srv := metricsServer(cfg.MetricsPort, cfg.Registry)
		stops = append(stops, srv.Shutdown)
		go serve(srv)
	}

	log.Info("telemetry initialized", "metrics_port", cfg.MetricsPort, "traces", cfg.OTLPEndpoint)
	return shutdown, nil
}

func newMeterProvider(res *resource.Resource, reg *prometheus.Registry) (*sdkmetric.MeterProvider, error) {
	var opts []otelprom.Option
	if reg != nil {
		opts = append(opts, otelprom.WithRegisterer(reg))
	}
	exporter, err := otelprom.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	), nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

func metricsServer(port string, reg *prometheus.Registry) *http.Server {
	handler := promhttp.Handler()
	if reg != nil {
		handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func serve(srv *http.Server) {
	log.Info("metrics server listening", "addr", srv.Addr+"/metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server error", "err", err)
	}
}
