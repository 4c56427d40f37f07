// Package response implements the uniform result envelope returned by every
// operation.
package response

import (
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

// Empty is the payload of operations that return no data.
type Empty struct{}

// PageMeta describes the page a collection envelope carries.
type PageMeta struct {
	TotalCount int64 `json:"totalCount"`
	PageIndex  int   `json:"pageIndex"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// Response is the envelope. Success and failure share one shape; Data is
// nil on failure unless the handler attaches a failure detail.
type Response[T any] struct {
	IsSuccess  bool      `json:"isSuccess"`
	StatusCode int       `json:"statusCode"`
	Message    string    `json:"message,omitempty"`
	Data       *T        `json:"data"`
	Meta       *PageMeta `json:"meta,omitempty"`
}

// Collection is the envelope of list operations.
type Collection[T any] = Response[[]T]

func OK[T any](data T, message string) Response[T] {
	return Response[T]{IsSuccess: true, StatusCode: http.StatusOK, Message: message, Data: &data}
}

func Created[T any](data T, message string) Response[T] {
	return Response[T]{IsSuccess: true, StatusCode: http.StatusCreated, Message: message, Data: &data}
}

func Accepted[T any](data T, message string) Response[T] {
	return Response[T]{IsSuccess: true, StatusCode: http.StatusAccepted, Message: message, Data: &data}
}

// Page builds a collection envelope. A nil slice is normalised to an empty
// one so that "data" is always a JSON array.
func Page[T any](items []T, total int64, pageIndex, pageSize int) Collection[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Collection[T]{
		IsSuccess:  true,
		StatusCode: http.StatusOK,
		Message:    "OK",
		Data:       &items,
		Meta: &PageMeta{
			TotalCount: total,
			PageIndex:  pageIndex,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}
}

// Fail builds a failure envelope with an explicit status.
func Fail[T any](statusCode int, message string) Response[T] {
	return Response[T]{StatusCode: statusCode, Message: message}
}

// FromError converts a classified error into a failure envelope. The
// error's Detail becomes Data when it has the payload type T.
func FromError[T any](err *apperr.Error) Response[T] {
	out := Fail[T](err.Kind.StatusCode(), err.Message)
	if detail, ok := err.Detail.(T); ok {
		out.Data = &detail
	}
	return out
}

// Status is implemented by every envelope so the transport can write the
// code without knowing the payload type.
type Status interface {
	Status() int
}

func (r Response[T]) Status() int { return r.StatusCode }
