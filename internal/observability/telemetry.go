// Package observability настраивает трассировку OpenTelemetry.
package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/annel0/voxel-editor/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc сбрасывает буферы экспортера и останавливает провайдер
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP HTTP экспортер на endpoint и устанавливает
// глобальный TracerProvider. Пустой endpoint - трассировка выключена,
// возвращается пустой shutdown.
func InitTelemetry(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	if endpoint == "" {
		logging.Debug("OpenTelemetry выключен: endpoint не задан")
		return noopShutdown, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(hostPort(endpoint))}
	if !strings.HasPrefix(endpoint, "https://") {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → %s, service=%s)", endpoint, serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// hostPort убирает схему и путь: otlptracehttp ждёт host:port
func hostPort(endpoint string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
