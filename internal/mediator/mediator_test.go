package mediator

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/response"
)

type ping struct{ N int }
type pong struct{ N int }
type unregistered struct{}

type boom struct{}

func TestSendDispatchesToRegisteredHandler(t *testing.T) {
	m := New()
	Register(m, func(ctx context.Context, req ping) (pong, error) {
		return pong{N: req.N + 1}, nil
	})

	resp, err := Send[ping, pong](context.Background(), m, ping{N: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.N)
}

func TestSendUnknownRequest(t *testing.T) {
	_, err := Send[unregistered, pong](context.Background(), New(), unregistered{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestRegisterTwicePanics(t *testing.T) {
	m := New()
	h := func(ctx context.Context, req ping) (pong, error) { return pong{}, nil }
	Register(m, h)
	assert.Panics(t, func() { Register(m, h) })
}

func TestSendCancelledContext(t *testing.T) {
	called := false
	m := New()
	Register(m, func(ctx context.Context, req ping) (pong, error) {
		called = true
		return pong{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Send[ping, pong](ctx, m, ping{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBehaviorsRunInOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Behavior {
		return func(ctx context.Context, req any, info Info, next Next) (any, error) {
			trace = append(trace, name+">")
			resp, err := next(ctx, req)
			trace = append(trace, "<"+name)
			return resp, err
		}
	}

	m := New(mark("outer"), mark("inner"))
	Register(m, func(ctx context.Context, req ping) (pong, error) {
		trace = append(trace, "handler")
		return pong{}, nil
	})

	_, err := Send[ping, pong](context.Background(), m, ping{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "handler", "<inner", "<outer"}, trace)
}

func TestLoggingLeavesErrorDetailToCaller(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := New(Logging(zap.New(core)))
	Register(m, func(ctx context.Context, req ping) (pong, error) {
		return pong{}, apperr.Storage("persist", errors.New("connection reset by peer"))
	})

	_, err := Send[ping, pong](context.Background(), m, ping{})
	require.Error(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "storage", entries[0].ContextMap()["kind"])
	assert.NotContains(t, entries[0].ContextMap(), "error")
}

func TestRecoveryConvertsPanics(t *testing.T) {
	m := New(Recovery(zap.NewNop()))
	Register(m, func(ctx context.Context, req boom) (pong, error) {
		panic("kaboom")
	})

	_, err := Send[boom, pong](context.Background(), m, boom{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestFullPipelineRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(
		Logging(zap.NewNop()),
		Tracing(noop.NewTracerProvider().Tracer("test")),
		Metrics(reg),
		Recovery(zap.NewNop()),
	)
	Register(m, func(ctx context.Context, req ping) (pong, error) {
		if req.N < 0 {
			return pong{}, apperr.Storage("ping", errors.New("disk full"))
		}
		return pong{N: req.N}, nil
	})

	_, err := Send[ping, pong](context.Background(), m, ping{N: 1})
	require.NoError(t, err)
	_, err = Send[ping, pong](context.Background(), m, ping{N: -1})
	require.Error(t, err)

	name := "mediator.ping"
	assert.Equal(t, 1.0, counterValue(t, reg, name, "ok"))
	assert.Equal(t, 1.0, counterValue(t, reg, name, "storage"))
}

type lookup struct{ ID int }

func TestMetricsLabelEnvelopeStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(Metrics(reg))
	Register(m, func(ctx context.Context, req lookup) (response.Response[pong], error) {
		return response.Fail[pong](http.StatusNotFound, "missing"), nil
	})

	_, err := Send[lookup, response.Response[pong]](context.Background(), m, lookup{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "mediator.lookup", "404"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, request, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "mediator_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["request"] == request && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no sample for %s/%s", request, outcome)
	return 0
}
