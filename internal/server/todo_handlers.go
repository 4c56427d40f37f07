package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/paging"
	"github.com/Tomlord1122/todo-api/internal/response"
	"github.com/Tomlord1122/todo-api/internal/service"
)

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodo
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dispatch[service.CreateTodo, service.CreatedTodo](s, w, r, req)
}

func (s *Server) getAllTodosHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := pageRequest(w, r)
	if !ok {
		return
	}
	completed, ok := queryBool(w, r, "isCompleted")
	if !ok {
		return
	}
	dispatch[service.GetAllTodos, []service.TodoListItem](s, w, r, service.GetAllTodos{Request: page, IsCompleted: completed})
}

func (s *Server) getTodoByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "todo")
	if !ok {
		return
	}
	dispatch[service.GetTodoByID, service.TodoDto](s, w, r, service.GetTodoByID{ID: id})
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "todo")
	if !ok {
		return
	}
	var req service.UpdateTodo
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.ID = id
	dispatch[service.UpdateTodo, service.UpdatedTodo](s, w, r, req)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "todo")
	if !ok {
		return
	}
	dispatch[service.DeleteTodo, response.Empty](s, w, r, service.DeleteTodo{ID: id})
}

func (s *Server) assignTagsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "todoId", "todo")
	if !ok {
		return
	}
	var req service.AssignTags
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.TodoID = id
	dispatch[service.AssignTags, service.TagAssignment](s, w, r, req)
}

func pageRequest(w http.ResponseWriter, r *http.Request) (paging.Request, bool) {
	req, err := paging.FromQuery(r.URL.Query())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return paging.Request{}, false
	}
	return req, true
}
