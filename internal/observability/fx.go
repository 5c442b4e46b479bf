package observability

import (
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/observability/logger"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.WithConfig,
		metrics.SchedulerWithConfig,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName:   cfg.AppName,
		Environment:   cfg.Environment,
		Version:       cfg.AppVersion,
		Level:         cfg.LogLevel,
		Format:        cfg.LogFormat,
		IncludeCaller: true,
		IncludeStack:  !cfg.IsProduction(),
	}
}

func provideTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.AppName,
		ServiceVersion:   cfg.AppVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}
