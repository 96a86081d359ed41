package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ProductionSampleRatio 生产环境根 span 采样比例
const ProductionSampleRatio = 0.1

// InitTracer 初始化全局 Tracer
// serviceName: 服务名称 (如 storefront, mailer)
// endpoint: OTLP HTTP 地址 (通常是 host:4318)
func InitTracer(ctx context.Context, serviceName, environment, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(environment)),
	)

	// 设置全局 Provider 和 Propagator，otelgin 中间件从这里取 tracer
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// samplerFor 生产环境按 10% 采样，其余环境全量
func samplerFor(environment string) sdktrace.Sampler {
	if environment == "production" {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ProductionSampleRatio))
	}
	return sdktrace.AlwaysSample()
}
