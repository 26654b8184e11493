package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/buyflow/buyflow/pkg/channels/gochannel"
	"github.com/buyflow/buyflow/pkg/channels/kafka"
	"github.com/buyflow/buyflow/pkg/eventbus"
	"github.com/buyflow/buyflow/pkg/otelhelper"
)

// NewEventBus creates an event bus instance based on the provider. kafka is
// the production channel; gochannel runs in-process for development.
func NewEventBus(ctx context.Context, provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	tracer := newTracer(ctx, serviceName, logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, tracer)
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub, tracer)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

// newTracer exports spans only when an OTLP endpoint is configured; otherwise
// consumption runs against a no-op tracer.
func newTracer(ctx context.Context, serviceName string, logger *slog.Logger) trace.Tracer {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return noop.NewTracerProvider().Tracer(serviceName)
	}

	tracer, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)

		return noop.NewTracerProvider().Tracer(serviceName)
	}

	return tracer
}
