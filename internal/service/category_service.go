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
	maxCategoryNameLength        = 100
	maxCategoryDescriptionLength = 500

	categoriesResource = "categories"
)

type categoryService struct {
	db    *gorm.DB
	cache *cache.ListCache
	now   func() time.Time
}

func newCategoryService(db *gorm.DB, lists *cache.ListCache, now func() time.Time) *categoryService {
	return &categoryService{db: db, cache: lists, now: now}
}

func (s *categoryService) CreateCategory(ctx context.Context, req CreateCategory) (response.Response[CategoryDto], error) {
	name, err := requiredText("name", req.Name, maxCategoryNameLength)
	if err != nil {
		return fail[CategoryDto](err)
	}
	description, err := optionalText("description", req.Description, maxCategoryDescriptionLength)
	if err != nil {
		return fail[CategoryDto](err)
	}

	sess := repository.NewSession(ctx, s.db)
	exists, err := repository.Categories(sess).Exists(repository.ByName("todo_categories", name))
	if err != nil {
		return fail[CategoryDto](err)
	}
	if exists {
		return fail[CategoryDto](apperr.Conflict("category %q already exists", name))
	}

	category := &domain.TodoCategory{Name: name, Description: description, CreatedAt: s.now()}
	cmd := repository.NewCommand[domain.TodoCategory](sess)
	cmd.Add(category)
	if err := cmd.Persist(); err != nil {
		return fail[CategoryDto](err)
	}

	s.cache.Invalidate(ctx, categoriesResource)
	return response.Created(toCategoryDto(category), "Category created"), nil
}

func (s *categoryService) GetAllCategories(ctx context.Context, req GetAllCategories) (response.Collection[CategoryDto], error) {
	if err := req.Validate(repository.CategorySortFields); err != nil {
		return fail[[]CategoryDto](err)
	}

	return cache.GetOrLoad(ctx, s.cache, categoriesResource, cache.Variant(req.Request), func(ctx context.Context) (response.Collection[CategoryDto], error) {
		sess := repository.NewSession(ctx, s.db)
		page, err := repository.Categories(sess).Find(repository.CategoryFilter{Search: req.Search}.Scope(), req.Request)
		if err != nil {
			return fail[[]CategoryDto](err)
		}

		items := make([]CategoryDto, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, toCategoryDto(&page.Items[i]))
		}
		return response.Page(items, page.TotalCount, req.PageIndex, req.PageSize), nil
	})
}

func toCategoryDto(c *domain.TodoCategory) CategoryDto {
	return CategoryDto{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}
