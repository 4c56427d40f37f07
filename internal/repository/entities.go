package repository

import (
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/paging"
)

const likeEscape = ` ESCAPE '\'`

var (
	TodoSortFields = paging.SortFields{
		"id":          "todo_items.id",
		"title":       "todo_items.title",
		"createdAt":   "todo_items.created_at",
		"completedAt": "todo_items.completed_at",
		"isCompleted": "todo_items.is_completed",
	}
	TagSortFields = paging.SortFields{
		"id":        "tags.id",
		"name":      "tags.name",
		"color":     "tags.color",
		"createdAt": "tags.created_at",
	}
	CategorySortFields = paging.SortFields{
		"id":        "todo_categories.id",
		"name":      "todo_categories.name",
		"createdAt": "todo_categories.created_at",
	}
)

func Todos(sess *Session) *Query[domain.TodoItem] {
	return NewQuery[domain.TodoItem](sess, "todos", TodoSortFields, "todo_items.id")
}

func Tags(sess *Session) *Query[domain.Tag] {
	return NewQuery[domain.Tag](sess, "tags", TagSortFields, "tags.id")
}

func Categories(sess *Session) *Query[domain.TodoCategory] {
	return NewQuery[domain.TodoCategory](sess, "categories", CategorySortFields, "todo_categories.id")
}

// TodoFilter narrows todo lists by a case-insensitive title substring and,
// optionally, by completion state.
type TodoFilter struct {
	Search      string
	IsCompleted *bool
}

func (f TodoFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			db = db.Where("LOWER(todo_items.title) LIKE ?"+likeEscape, paging.LikePattern(f.Search))
		}
		if f.IsCompleted != nil {
			db = db.Where("todo_items.is_completed = ?", *f.IsCompleted)
		}
		return db
	}
}

// TodoListProjection flattens a todo and its category name into one row.
var TodoListProjection = Projection{
	Columns: []string{
		"todo_items.id",
		"todo_items.title",
		"todo_items.description",
		"todo_items.is_completed",
		"todo_items.created_at",
		"todo_items.completed_at",
		"todo_categories.name AS category_name",
	},
	Joins: []string{"LEFT JOIN todo_categories ON todo_categories.id = todo_items.category_id"},
}

// TagFilter matches the search term against the tag name or its color.
type TagFilter struct {
	Search string
}

func (f TagFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search == "" {
			return db
		}
		p := paging.LikePattern(f.Search)
		return db.Where("LOWER(tags.name) LIKE ?"+likeEscape+" OR LOWER(COALESCE(tags.color, '')) LIKE ?"+likeEscape, p, p)
	}
}

type CategoryFilter struct {
	Search string
}

func (f CategoryFilter) Scope() Scope {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search == "" {
			return db
		}
		return db.Where("LOWER(todo_categories.name) LIKE ?"+likeEscape, paging.LikePattern(f.Search))
	}
}

// ByID matches the row whose primary key, qualified by table, equals id.
func ByID(table string, id uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".id = ?", id)
	}
}

// ByIDs matches any of ids. An empty list matches nothing.
func ByIDs(table string, ids []uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(table+".id IN ?", ids)
	}
}

// ByName matches an exact, case-sensitive name.
func ByName(table, name string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".name = ?", name)
	}
}
