package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/mediator"
	"github.com/Tomlord1122/todo-api/internal/response"
)

const maxJSONBodyBytes = 1 << 20

// dispatch sends req through the mediator and writes the resulting envelope.
func dispatch[Req, T any](s *Server, w http.ResponseWriter, r *http.Request, req Req) {
	resp, err := mediator.Send[Req, response.Response[T]](r.Context(), s.mediator, req)
	writeResult(s, w, r, resp, err)
}

// writeResult is the error boundary. Expected failures already arrive as
// envelopes; anything else is logged in full and answered with a generic 500.
func writeResult[T any](s *Server, w http.ResponseWriter, r *http.Request, resp response.Response[T], err error) {
	if err == nil {
		respondWithJSON(w, resp.StatusCode, resp)
		return
	}
	if appErr, ok := apperr.As(err); ok && appErr.Expected() {
		out := response.FromError[T](appErr)
		respondWithJSON(w, out.StatusCode, out)
		return
	}
	s.fail(w, r, err)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	s.log.Error("request failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)

	msg := "an unexpected error occurred"
	if kind == apperr.KindStorage {
		msg = "a storage error occurred"
	}
	respondWithJSON(w, http.StatusInternalServerError, response.Fail[response.Empty](http.StatusInternalServerError, msg))
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, response.Fail[response.Empty](code, message))
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("marshal response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"isSuccess":false,"statusCode":500,"message":"Internal server error preparing response","data":null}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// decodeJSON strictly decodes the request body into dst. On failure it writes
// a 400 envelope and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decode(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON but accepts an empty body.
func (s *Server) decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decode(w, r, dst, true)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}
	if allowEmpty && errors.Is(err, io.EOF) {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)",
				unmarshalTypeError.Field, unmarshalTypeError.Offset))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	case errors.As(err, &maxBytesError):
		respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit))
	default:
		s.fail(w, r, apperr.Unexpected("decode request body", err))
	}
	return false
}

// pathID parses a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, param, entity string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID provided", entity))
		return 0, false
	}
	return uint(id), true
}

// pathName returns a URL parameter with percent-encoding removed, so names
// may contain an escaped slash.
func pathName(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, param))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s provided", param))
		return "", false
	}
	return name, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a boolean, got %q", name, raw))
		return nil, false
	}
	return &v, true
}
