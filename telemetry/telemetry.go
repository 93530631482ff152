package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/freekieb7/phantom/config"
	"github.com/freekieb7/phantom/filesystem"
)

// Name is the instrumentation scope used for traces, metrics and logs.
const Name = "github.com/freekieb7/phantom"

// ShutdownFunc flushes and releases everything Setup created.
type ShutdownFunc func(ctx context.Context) error

// Setup builds the process logger. With an OTLP endpoint configured the
// global tracer, meter and logger providers export over gRPC and the logger
// is bridged to OpenTelemetry. Otherwise records are written as text to the
// configured log file, or to stderr when that file cannot be opened.
func Setup(ctx context.Context, cfg config.Config, fs filesystem.Filesystem) (*slog.Logger, ShutdownFunc, error) {
	if cfg.OTLPEndpoint != "" {
		return setupOTLP(ctx, cfg)
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	shutdown := func(context.Context) error { return nil }

	if cfg.LogFilename != "" {
		file, err := fs.OpenAppend(cfg.LogFilename)
		if err != nil {
			slog.Warn("opening log file failed, logging to stderr", "file", cfg.LogFilename, "error", err)
		} else {
			out = file
			shutdown = func(context.Context) error { return file.Close() }
		}
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, shutdown, nil
}

// ParseLevel accepts debug, info, warn and error in any case. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("telemetry: unknown log level %q", name)
	}
	return level, nil
}

func setupOTLP(ctx context.Context, cfg config.Config) (*slog.Logger, ShutdownFunc, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attribute.String("service.name", "phantom")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("telemetry: trace exporter: %w", err), shutdown(ctx))
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("telemetry: metric exporter: %w", err), shutdown(ctx))
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("telemetry: log exporter: %w", err), shutdown(ctx))
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	logger := otelslog.NewLogger(Name, otelslog.WithLoggerProvider(loggerProvider))
	return logger, shutdown, nil
}
