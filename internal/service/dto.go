package service

import (
	"time"

	"github.com/Tomlord1122/todo-api/internal/paging"
)

// Requests carry path parameters in fields tagged json:"-"; the transport
// fills them after decoding the body.

type CreateTodo struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	CategoryID  *uint   `json:"categoryId"`
}

type CreatedTodo struct {
	ID uint `json:"id"`
}

// UpdateTodo overwrites title and description. A nil IsCompleted keeps the
// current completion state.
type UpdateTodo struct {
	ID          uint    `json:"-"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"isCompleted"`
}

type UpdatedTodo struct {
	ID          uint `json:"id"`
	IsCompleted bool `json:"isCompleted"`
}

type DeleteTodo struct {
	ID uint
}

type GetTodoByID struct {
	ID uint
}

type TodoDto struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	IsCompleted  bool       `json:"isCompleted"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	CategoryID   *uint      `json:"categoryId"`
	CategoryName *string    `json:"categoryName"`
	Tags         []TagDto   `json:"tags"`
}

type GetAllTodos struct {
	paging.Request
	IsCompleted *bool
}

// TodoListItem is the projected row of the todo list.
type TodoListItem struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	IsCompleted  bool       `json:"isCompleted"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	CategoryName *string    `json:"categoryName"`
}

type AssignTags struct {
	TodoID uint   `json:"-"`
	TagIDs []uint `json:"tagIds"`
}

// TagAssignment is returned on success and, with MissingTagIDs set, as the
// detail of a not-found failure.
type TagAssignment struct {
	TodoID         uint   `json:"todoId"`
	AssignedTagIDs []uint `json:"assignedTagIds"`
	MissingTagIDs  []uint `json:"missingTagIds,omitempty"`
}

type CreateTag struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type TagDto struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

type GetAllTags struct {
	paging.Request
}

type CreateCategory struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CategoryDto struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type GetAllCategories struct {
	paging.Request
}
