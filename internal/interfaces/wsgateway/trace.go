package wsgateway

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var gatewayTracer = otel.Tracer("competition-engine/internal/interfaces/wsgateway")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return gatewayTracer.Start(ctx, name)
}
