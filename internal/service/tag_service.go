package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/cache"
	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/response"
)

const (
	maxTagNameLength = 100
	maxColorLength   = 32

	tagsResource = "tags"
)

type tagService struct {
	db    *gorm.DB
	cache *cache.ListCache
	now   func() time.Time
}

func newTagService(db *gorm.DB, lists *cache.ListCache, now func() time.Time) *tagService {
	return &tagService{db: db, cache: lists, now: now}
}

func (s *tagService) CreateTag(ctx context.Context, req CreateTag) (response.Response[TagDto], error) {
	name, err := requiredText("name", req.Name, maxTagNameLength)
	if err != nil {
		return fail[TagDto](err)
	}
	color, err := optionalText("color", req.Color, maxColorLength)
	if err != nil {
		return fail[TagDto](err)
	}

	tag := &domain.Tag{Name: name, Color: color, CreatedAt: s.now()}
	cmd := repository.NewCommand[domain.Tag](repository.NewSession(ctx, s.db))
	cmd.Add(tag)
	if err := cmd.Persist(); err != nil {
		return fail[TagDto](err)
	}

	s.cache.Invalidate(ctx, tagsResource)
	return response.Created(toTagDto(tag), "Tag created"), nil
}

// GetAllTags matches the search term against name or color.
func (s *tagService) GetAllTags(ctx context.Context, req GetAllTags) (response.Collection[TagDto], error) {
	if err := req.Validate(repository.TagSortFields); err != nil {
		return fail[[]TagDto](err)
	}

	return cache.GetOrLoad(ctx, s.cache, tagsResource, cache.Variant(req.Request), func(ctx context.Context) (response.Collection[TagDto], error) {
		sess := repository.NewSession(ctx, s.db)
		page, err := repository.Tags(sess).Find(repository.TagFilter{Search: req.Search}.Scope(), req.Request)
		if err != nil {
			return fail[[]TagDto](err)
		}

		items := make([]TagDto, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, toTagDto(&page.Items[i]))
		}
		return response.Page(items, page.TotalCount, req.PageIndex, req.PageSize), nil
	})
}

func toTagDto(tag *domain.Tag) TagDto {
	return TagDto{ID: tag.ID, Name: tag.Name, Color: tag.Color, CreatedAt: tag.CreatedAt}
}
