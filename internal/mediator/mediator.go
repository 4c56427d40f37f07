// Package mediator dispatches typed requests to exactly one registered
// handler through a chain of pipeline behaviors.
package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

// Next invokes the rest of the pipeline.
type Next func(ctx context.Context, req any) (any, error)

// Info describes the request being dispatched.
type Info struct {
	// Name is the request type name, e.g. "service.CreateTodo".
	Name string
}

// Behavior wraps every dispatch. Behaviors run in registration order, the
// first one outermost.
type Behavior func(ctx context.Context, req any, info Info, next Next) (any, error)

type Mediator struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]Next
	behaviors []Behavior
}

func New(behaviors ...Behavior) *Mediator {
	return &Mediator{
		handlers:  make(map[reflect.Type]Next),
		behaviors: behaviors,
	}
}

// Register binds h to Req. Registering a second handler for the same
// request type panics.
func Register[Req, Resp any](m *Mediator, h func(ctx context.Context, req Req) (Resp, error)) {
	key := reflect.TypeFor[Req]()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.handlers[key]; dup {
		panic(fmt.Sprintf("mediator: handler for %s already registered", key))
	}
	m.handlers[key] = func(ctx context.Context, req any) (any, error) {
		return h(ctx, req.(Req))
	}
}

// Send dispatches req to its handler. A cancelled context is reported
// before any handler runs.
func Send[Req, Resp any](ctx context.Context, m *Mediator, req Req) (Resp, error) {
	var zero Resp
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	key := reflect.TypeFor[Req]()
	m.mu.RLock()
	handler, ok := m.handlers[key]
	m.mu.RUnlock()
	if !ok {
		return zero, apperr.Unexpected("dispatch", fmt.Errorf("no handler registered for %s", key))
	}

	info := Info{Name: key.String()}
	next := handler
	for i := len(m.behaviors) - 1; i >= 0; i-- {
		b, inner := m.behaviors[i], next
		next = func(ctx context.Context, req any) (any, error) {
			return b(ctx, req, info, inner)
		}
	}

	out, err := next(ctx, req)
	resp, ok := out.(Resp)
	if !ok && out != nil {
		return zero, apperr.Unexpected("dispatch", fmt.Errorf("handler for %s returned %T", key, out))
	}
	return resp, err
}
