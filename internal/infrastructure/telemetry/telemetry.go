package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grafana/pyroscope-go"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trendstep/storefront/internal/infrastructure/config"
)

const shutdownTimeout = 10 * time.Second

// Telemetry owns the providers installed by Setup
type Telemetry struct {
	serviceName string
	logger      *zap.Logger

	traces   *sdktrace.TracerProvider
	metrics  *sdkmetric.MeterProvider
	logs     *sdklog.LoggerProvider
	profiler *pyroscope.Profiler
}

// Setup installs the configured pipelines as OpenTelemetry globals. When
// telemetry is disabled nothing is installed and the global no-op providers
// stay in place.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Telemetry{serviceName: cfg.ServiceName, logger: logger}

	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op providers")
		return t, nil
	}

	var err error
	// the profiler starts first so span profiles can attach to it
	if cfg.ProfilingEnabled {
		if t.profiler, err = startProfiler(cfg.ServiceName, cfg.PyroscopeEndpoint, logger); err != nil {
			return nil, err
		}
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		t.shutdown(ctx)
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if t.traces, err = newTracerProvider(ctx, cfg, res, t.profiler != nil, logger); err != nil {
		t.shutdown(ctx)
		return nil, err
	}

	if cfg.MetricsEnabled {
		if t.metrics, err = newMeterProvider(ctx, cfg, res, logger); err != nil {
			t.shutdown(ctx)
			return nil, err
		}
	}

	if cfg.LogsEnabled {
		if t.logs, err = newLoggerProvider(ctx, cfg, res, logger); err != nil {
			t.shutdown(ctx)
			return nil, err
		}
	}
	return t, nil
}

// Enabled reports whether a trace pipeline is installed
func (t *Telemetry) Enabled() bool {
	return t.traces != nil
}

// ZapCore returns a core that forwards log entries to the OTLP log pipeline,
// or a no-op core when log export is off
func (t *Telemetry) ZapCore(minLevel zapcore.Level) zapcore.Core {
	return newZapCore(t.serviceName, t.logs, minLevel)
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}

func (t *Telemetry) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if t.logs != nil {
		errs = append(errs, t.logs.Shutdown(ctx))
	}
	if t.metrics != nil {
		errs = append(errs, t.metrics.Shutdown(ctx))
	}
	if t.traces != nil {
		errs = append(errs, t.traces.Shutdown(ctx))
	}
	if t.profiler != nil {
		errs = append(errs, t.profiler.Stop())
	}
	if err := errors.Join(errs...); err != nil {
		t.logger.Error("telemetry shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
