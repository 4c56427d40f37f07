package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/mediator"
	"github.com/Tomlord1122/todo-api/internal/response"
	"github.com/Tomlord1122/todo-api/internal/service"
	"github.com/Tomlord1122/todo-api/internal/storage"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 1 << 20

func (s *Server) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			respondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("file must not be larger than %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		respondWithError(w, http.StatusBadRequest, "Request must be multipart/form-data with a \"file\" part")
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Request must contain a \"file\" part")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		s.fail(w, r, apperr.Unexpected("read upload", err))
		return
	}

	dispatch[service.UploadFile, storage.FileDto](s, w, r, service.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
}

func (s *Server) listFilesHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	dispatch[service.ListFiles, []storage.FileDto](s, w, r, service.ListFiles{Request: page})
}

func (s *Server) downloadFileHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := mediator.Send[service.DownloadFile, response.Response[storage.File]](
		r.Context(), s.mediator, service.DownloadFile{ID: chi.URLParam(r, "id")})
	s.writeFile(w, r, resp, err)
}

func (s *Server) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	dispatch[service.DeleteFile, response.Empty](s, w, r, service.DeleteFile{ID: chi.URLParam(r, "id")})
}

func (s *Server) presignFileHandler(w http.ResponseWriter, r *http.Request) {
	var req service.PresignFile
	if !s.decodeOptionalJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	dispatch[service.PresignFile, storage.PresignedURL](s, w, r, req)
}

func (s *Server) openPresignedHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "token is required")
		return
	}
	resp, err := mediator.Send[service.OpenPresigned, response.Response[storage.File]](
		r.Context(), s.mediator, service.OpenPresigned{Token: token})
	s.writeFile(w, r, resp, err)
}

// writeFile streams a successful download as raw bytes. Failures use the
// JSON envelope like every other route.
func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, resp response.Response[storage.File], err error) {
	if err != nil || !resp.IsSuccess || resp.Data == nil {
		writeResult(s, w, r, resp, err)
		return
	}
	file := resp.Data
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
