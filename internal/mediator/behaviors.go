package mediator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/response"
)

func outcome(resp any, err error) string {
	if err != nil {
		return apperr.KindOf(err).String()
	}
	if s, ok := resp.(response.Status); ok {
		return fmt.Sprintf("%d", s.Status())
	}
	return "ok"
}

func Logging(logger *zap.Logger) Behavior {
	return func(ctx context.Context, req any, info Info, next Next) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		duration := time.Since(start)

		// Error detail is logged once, by the transport boundary.
		if err != nil {
			logger.Info("request failed",
				zap.String("request", info.Name),
				zap.Duration("duration", duration),
				zap.String("kind", apperr.KindOf(err).String()),
			)
		} else {
			logger.Debug("request handled",
				zap.String("request", info.Name),
				zap.Duration("duration", duration),
				zap.String("outcome", outcome(resp, nil)),
			)
		}
		return resp, err
	}
}

// Recovery turns a handler panic into an unexpected error.
func Recovery(logger *zap.Logger) Behavior {
	return func(ctx context.Context, req any, info Info, next Next) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("request", info.Name),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				resp, err = nil, apperr.Unexpected(info.Name, fmt.Errorf("panic: %v", r))
			}
		}()
		return next(ctx, req)
	}
}

func Tracing(tracer trace.Tracer) Behavior {
	return func(ctx context.Context, req any, info Info, next Next) (any, error) {
		ctx, span := tracer.Start(ctx, info.Name)
		defer span.End()

		resp, err := next(ctx, req)
		span.SetAttributes(attribute.String("mediator.outcome", outcome(resp, err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return resp, err
	}
}

// Metrics records per-request counts, durations and in-flight gauges on reg.
func Metrics(reg prometheus.Registerer) Behavior {
	factory := promauto.With(reg)
	total := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediator_requests_total",
			Help: "Total number of dispatched requests",
		},
		[]string{"request", "outcome"},
	)
	duration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediator_request_duration_seconds",
			Help:    "Histogram of request handling durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"request"},
	)
	active := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediator_active_requests",
			Help: "Number of requests being handled",
		},
		[]string{"request"},
	)

	return func(ctx context.Context, req any, info Info, next Next) (any, error) {
		start := time.Now()
		active.WithLabelValues(info.Name).Inc()
		defer active.WithLabelValues(info.Name).Dec()

		resp, err := next(ctx, req)

		duration.WithLabelValues(info.Name).Observe(time.Since(start).Seconds())
		total.WithLabelValues(info.Name, outcome(resp, err)).Inc()
		return resp, err
	}
}
