package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/cache"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/response"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000

	todosResource = "todos"
)

// todoService implements the todo use cases. It holds no per-request
// state; each call opens its own repository session.
type todoService struct {
	db    *gorm.DB
	cache *cache.ListCache
	now   func() time.Time
}

func newTodoService(db *gorm.DB, lists *cache.ListCache, now func() time.Time) *todoService {
	return &todoService{db: db, cache: lists, now: now}
}

func (s *todoService) CreateTodo(ctx context.Context, req CreateTodo) (response.Response[CreatedTodo], error) {
	title, err := requiredText("title", req.Title, maxTitleLength)
	if err != nil {
		return fail[CreatedTodo](err)
	}
	description, err := optionalText("description", req.Description, maxDescriptionLength)
	if err != nil {
		return fail[CreatedTodo](err)
	}

	sess := repository.NewSession(ctx, s.db)
	if req.CategoryID != nil {
		exists, err := repository.Categories(sess).Exists(repository.ByID("todo_categories", *req.CategoryID))
		if err != nil {
			return fail[CreatedTodo](err)
		}
		if !exists {
			return fail[CreatedTodo](apperr.NotFound(nil, "category %d not found", *req.CategoryID))
		}
	}

	todo := &domain.TodoItem{
		Title:       title,
		Description: description,
		CreatedAt:   s.now(),
		CategoryID:  req.CategoryID,
	}
	cmd := repository.NewCommand[domain.TodoItem](sess)
	cmd.Add(todo)
	if err := cmd.Persist(); err != nil {
		return fail[CreatedTodo](err)
	}

	s.cache.Invalidate(ctx, todosResource)
	return response.Created(CreatedTodo{ID: todo.ID}, "Todo created"), nil
}

func (s *todoService) UpdateTodo(ctx context.Context, req UpdateTodo) (response.Response[UpdatedTodo], error) {
	title, err := requiredText("title", req.Title, maxTitleLength)
	if err != nil {
		return fail[UpdatedTodo](err)
	}
	description, err := optionalText("description", req.Description, maxDescriptionLength)
	if err != nil {
		return fail[UpdatedTodo](err)
	}

	sess := repository.NewSession(ctx, s.db)
	todo, err := repository.Todos(sess).FindOne(repository.ByID("todo_items", req.ID))
	if err != nil {
		return fail[UpdatedTodo](err)
	}
	if todo == nil {
		return fail[UpdatedTodo](todoNotFound(req.ID))
	}

	todo.Title = title
	todo.Description = description
	if req.IsCompleted != nil {
		todo.SetCompleted(*req.IsCompleted, s.now())
	}

	cmd := repository.NewCommand[domain.TodoItem](sess)
	cmd.Update(todo)
	if err := cmd.Persist(); err != nil {
		return fail[UpdatedTodo](err)
	}

	s.cache.Invalidate(ctx, todosResource)
	return response.OK(UpdatedTodo{ID: todo.ID, IsCompleted: todo.IsCompleted}, "Todo updated"), nil
}

func (s *todoService) DeleteTodo(ctx context.Context, req DeleteTodo) (response.Response[response.Empty], error) {
	sess := repository.NewSession(ctx, s.db)
	todo, err := repository.Todos(sess).FindOne(repository.ByID("todo_items", req.ID))
	if err != nil {
		return fail[response.Empty](err)
	}
	if todo == nil {
		return fail[response.Empty](todoNotFound(req.ID))
	}

	cmd := repository.NewCommand[domain.TodoItem](sess)
	cmd.Delete(todo, "Tags")
	if err := cmd.Persist(); err != nil {
		return fail[response.Empty](err)
	}

	s.cache.Invalidate(ctx, todosResource)
	return response.OK(response.Empty{}, "Todo deleted"), nil
}

func (s *todoService) GetTodoByID(ctx context.Context, req GetTodoByID) (response.Response[TodoDto], error) {
	sess := repository.NewSession(ctx, s.db)
	todo, err := repository.Todos(sess).FindOne(repository.ByID("todo_items", req.ID), "Category", "Tags")
	if err != nil {
		return fail[TodoDto](err)
	}
	if todo == nil {
		return fail[TodoDto](todoNotFound(req.ID))
	}
	return response.OK(toTodoDto(todo), "OK"), nil
}

func (s *todoService) GetAllTodos(ctx context.Context, req GetAllTodos) (response.Collection[TodoListItem], error) {
	if err := req.Validate(repository.TodoSortFields); err != nil {
		return fail[[]TodoListItem](err)
	}

	variant := cache.Variant(req.Request, req.IsCompleted)
	return cache.GetOrLoad(ctx, s.cache, todosResource, variant, func(ctx context.Context) (response.Collection[TodoListItem], error) {
		sess := repository.NewSession(ctx, s.db)
		filter := repository.TodoFilter{Search: req.Search, IsCompleted: req.IsCompleted}
		page, err := repository.FindProjected[domain.TodoItem, TodoListItem](
			repository.Todos(sess), filter.Scope(), repository.TodoListProjection, req.Request)
		if err != nil {
			return fail[[]TodoListItem](err)
		}
		return response.Page(page.Items, page.TotalCount, req.PageIndex, req.PageSize), nil
	})
}

// AssignTags replaces the todo's tag set with exactly the requested tags.
// When any requested tag is missing nothing is changed.
func (s *todoService) AssignTags(ctx context.Context, req AssignTags) (response.Response[TagAssignment], error) {
	sess := repository.NewSession(ctx, s.db)
	todo, err := repository.Todos(sess).FindOne(repository.ByID("todo_items", req.TodoID), "Tags")
	if err != nil {
		return fail[TagAssignment](err)
	}
	if todo == nil {
		return fail[TagAssignment](todoNotFound(req.TodoID))
	}

	ids := dedupe(req.TagIDs)
	tags, err := repository.Tags(sess).FindAll(repository.ByIDs("tags", ids))
	if err != nil {
		return fail[TagAssignment](err)
	}

	if missing := missingIDs(ids, tags); len(missing) > 0 {
		detail := TagAssignment{TodoID: todo.ID, AssignedTagIDs: todo.TagIDs(), MissingTagIDs: missing}
		return fail[TagAssignment](apperr.NotFound(detail, "tags not found: %v", missing))
	}

	cmd := repository.NewCommand[domain.TodoItem](sess)
	cmd.ReplaceAssociation(todo, "Tags", tags)
	if err := cmd.Persist(); err != nil {
		return fail[TagAssignment](err)
	}

	s.cache.Invalidate(ctx, todosResource)
	return response.OK(TagAssignment{TodoID: todo.ID, AssignedTagIDs: ids}, "Tags assigned"), nil
}

func todoNotFound(id uint) *apperr.Error {
	return apperr.NotFound(nil, "todo %d not found", id)
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(want []uint, found []domain.Tag) []uint {
	have := make(map[uint]struct{}, len(found))
	for _, tag := range found {
		have[tag.ID] = struct{}{}
	}
	var missing []uint
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func toTodoDto(todo *domain.TodoItem) TodoDto {
	dto := TodoDto{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		IsCompleted: todo.IsCompleted,
		CreatedAt:   todo.CreatedAt,
		CompletedAt: todo.CompletedAt,
		CategoryID:  todo.CategoryID,
		Tags:        make([]TagDto, 0, len(todo.Tags)),
	}
	if todo.Category != nil {
		dto.CategoryName = &todo.Category.Name
	}
	for i := range todo.Tags {
		dto.Tags = append(dto.Tags, toTagDto(&todo.Tags[i]))
	}
	return dto
}
