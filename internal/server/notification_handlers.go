package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/notify"
)

func (s *Server) sendEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req notify.Email
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[notify.Email, notify.Dispatched](s, w, r, req)
}

func (s *Server) sendSMSHandler(w http.ResponseWriter, r *http.Request) {
	var req notify.SMS
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[notify.SMS, notify.Dispatched](s, w, r, req)
}
