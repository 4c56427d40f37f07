package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/service"
)

func (s *Server) createTagHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTag
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[service.CreateTag, service.TagDto](s, w, r, req)
}

func (s *Server) getAllTagsHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	dispatch[service.GetAllTags, []service.TagDto](s, w, r, service.GetAllTags{Request: page})
}

func (s *Server) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCategory
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[service.CreateCategory, service.CategoryDto](s, w, r, req)
}

func (s *Server) getAllCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	dispatch[service.GetAllCategories, []service.CategoryDto](s, w, r, service.GetAllCategories{Request: page})
}
