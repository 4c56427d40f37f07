package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/response"
	"github.com/Tomlord1122/todo-api/internal/secrets"
	"github.com/Tomlord1122/todo-api/internal/service"
)

func (s *Server) listSecretsHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	dispatch[service.ListSecrets, []secrets.Metadata](s, w, r, service.ListSecrets{Request: page})
}

func (s *Server) createSecretHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSecret
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[service.CreateSecret, secrets.Metadata](s, w, r, req)
}

func (s *Server) getSecretHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r, "name")
	if !ok {
		return
	}
	dispatch[service.GetSecret, secrets.Secret](s, w, r, service.GetSecret{Name: name})
}

func (s *Server) updateSecretHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r, "name")
	if !ok {
		return
	}
	var req service.UpdateSecret
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.Name = name
	dispatch[service.UpdateSecret, secrets.Metadata](s, w, r, req)
}

func (s *Server) deleteSecretHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r, "name")
	if !ok {
		return
	}
	dispatch[service.DeleteSecret, response.Empty](s, w, r, service.DeleteSecret{Name: name})
}
