// Package service holds the use-case handlers. Each handler owns one request
// type and is registered with the mediator in Register.
package service

import (
	"strings"
	"unicode/utf8"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/response"
)

// fail turns a caller-facing error into a failure envelope. Storage and
// unexpected errors are returned as-is for the transport boundary.
func fail[T any](err error) (response.Response[T], error) {
	if appErr, ok := apperr.As(err); ok && appErr.Expected() {
		return response.FromError[T](appErr), nil
	}
	return response.Response[T]{}, err
}

// requiredText trims s and checks it is non-empty and at most limit runes.
func requiredText(field, s string, limit int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(s) > limit {
		return "", apperr.Validation("%s must be at most %d characters", field, limit)
	}
	return s, nil
}

// optionalText trims s; blank becomes nil.
func optionalText(field string, s *string, limit int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > limit {
		return nil, apperr.Validation("%s must be at most %d characters", field, limit)
	}
	return &trimmed, nil
}
