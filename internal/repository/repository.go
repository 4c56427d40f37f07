// Package repository provides generic query and command repositories over
// gorm, plus typed filter scopes for each entity.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-api/internal/apperr"
	"github.com/Tomlord1122/todo-api/internal/paging"
)

// Scope narrows a query. A nil Scope matches everything.
type Scope func(*gorm.DB) *gorm.DB

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	if s == nil {
		return db
	}
	return s(db)
}

// QueryRepository is read-only access to entities of type E.
type QueryRepository[E any] interface {
	// Find returns one page of the entities matching where, ordered by
	// req.OrderBy, plus the total match count.
	Find(where Scope, req paging.Request) (paging.Result[E], error)
	// FindOne returns nil, nil when nothing matches. include names the
	// associations to eager-load.
	FindOne(where Scope, include ...string) (*E, error)
	// FindAll returns every match, unpaged.
	FindAll(where Scope) ([]E, error)
	Exists(where Scope) (bool, error)
}

// CommandRepository stages writes against a Session. Nothing is durable
// until Persist succeeds.
type CommandRepository[E any] interface {
	Add(entity *E)
	Update(entity *E)
	Delete(entity *E, associations ...string)
	ReplaceAssociation(entity *E, name string, values any)
	Persist() error
}

// Query is the gorm implementation of QueryRepository.
type Query[E any] struct {
	sess     *Session
	sort     paging.SortFields
	keyCol   string
	resource string
}

var _ QueryRepository[struct{}] = (*Query[struct{}])(nil)

// NewQuery creates a query repository. sort whitelists the orderable fields;
// keyCol is the qualified primary key used as default order and tie-breaker.
func NewQuery[E any](sess *Session, resource string, sort paging.SortFields, keyCol string) *Query[E] {
	return &Query[E]{sess: sess, sort: sort, keyCol: keyCol, resource: resource}
}

func (q *Query[E]) Find(where Scope, req paging.Request) (paging.Result[E], error) {
	if err := req.Validate(q.sort); err != nil {
		return paging.Result[E]{}, err
	}

	var out paging.Result[E]
	err := q.sess.snapshot("repository.Find "+q.resource, func(tx *gorm.DB) error {
		if err := where.apply(tx.Model(new(E))).Count(&out.TotalCount).Error; err != nil {
			return fmt.Errorf("count: %w", err)
		}
		items := make([]E, 0, req.PageSize)
		if err := q.page(where.apply(tx.Model(new(E))), req).Find(&items).Error; err != nil {
			return fmt.Errorf("page: %w", err)
		}
		out.Items = items
		return nil
	})
	if err != nil {
		return paging.Result[E]{}, apperr.Storage("list "+q.resource, err)
	}
	return out, nil
}

func (q *Query[E]) FindOne(where Scope, include ...string) (*E, error) {
	db := where.apply(q.sess.db.Model(new(E)))
	for _, assoc := range include {
		db = db.Preload(assoc)
	}

	var entity E
	if err := db.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Storage("find "+q.resource, err)
	}
	return &entity, nil
}

func (q *Query[E]) FindAll(where Scope) ([]E, error) {
	items := make([]E, 0)
	if err := where.apply(q.sess.db.Model(new(E))).Order(q.keyCol).Find(&items).Error; err != nil {
		return nil, apperr.Storage("find "+q.resource, err)
	}
	return items, nil
}

func (q *Query[E]) Exists(where Scope) (bool, error) {
	var count int64
	if err := where.apply(q.sess.db.Model(new(E))).Limit(1).Count(&count).Error; err != nil {
		return false, apperr.Storage("check "+q.resource, err)
	}
	return count > 0, nil
}

// page applies ordering, the primary-key tie-breaker and the offset window.
func (q *Query[E]) page(db *gorm.DB, req paging.Request) *gorm.DB {
	col := req.Column(q.sort, q.keyCol)
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col, Raw: true}, Desc: !req.IsAscending})
	if col != q.keyCol {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: q.keyCol, Raw: true}, Desc: !req.IsAscending})
	}
	return db.Offset(req.Offset()).Limit(req.PageSize)
}

// Projection selects a reduced column set, optionally across joins, so a
// page can be materialised directly into a result shape.
type Projection struct {
	Columns []string
	Joins   []string
}

// FindProjected behaves like Find but scans each matched row into R using
// the projection instead of loading full entities.
func FindProjected[E, R any](q *Query[E], where Scope, proj Projection, req paging.Request) (paging.Result[R], error) {
	if err := req.Validate(q.sort); err != nil {
		return paging.Result[R]{}, err
	}

	var out paging.Result[R]
	err := q.sess.snapshot("repository.FindProjected "+q.resource, func(tx *gorm.DB) error {
		if err := where.apply(tx.Model(new(E))).Count(&out.TotalCount).Error; err != nil {
			return fmt.Errorf("count: %w", err)
		}

		db := tx.Model(new(E))
		for _, join := range proj.Joins {
			db = db.Joins(join)
		}
		db = q.page(where.apply(db.Select(proj.Columns)), req)

		items := make([]R, 0, req.PageSize)
		if err := db.Scan(&items).Error; err != nil {
			return fmt.Errorf("page: %w", err)
		}
		out.Items = items
		return nil
	})
	if err != nil {
		return paging.Result[R]{}, apperr.Storage("list "+q.resource, err)
	}
	return out, nil
}

// Command is the gorm implementation of CommandRepository.
type Command[E any] struct {
	sess *Session
}

var _ CommandRepository[struct{}] = (*Command[struct{}])(nil)

func NewCommand[E any](sess *Session) *Command[E] {
	return &Command[E]{sess: sess}
}

// Add stages an insert. The generated key is written back to entity once
// Persist succeeds.
func (c *Command[E]) Add(entity *E) {
	c.sess.stage(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(entity).Error
	})
}

// Update stages a full-row update, zero values included. Associations are
// left untouched; use ReplaceAssociation for those.
func (c *Command[E]) Update(entity *E) {
	c.sess.stage(func(tx *gorm.DB) error {
		res := tx.Model(entity).Select("*").Omit(clause.Associations).Updates(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete stages a hard delete. Named many-to-many associations have their
// join rows removed first.
func (c *Command[E]) Delete(entity *E, associations ...string) {
	c.sess.stage(func(tx *gorm.DB) error {
		if len(associations) > 0 {
			tx = tx.Select(associations)
		}
		return tx.Delete(entity).Error
	})
}

// ReplaceAssociation stages replacing the whole association set of entity
// with values. An empty slice clears it.
func (c *Command[E]) ReplaceAssociation(entity *E, name string, values any) {
	c.sess.stage(func(tx *gorm.DB) error {
		assoc := tx.Model(entity).Association(name)
		if isEmptySlice(values) {
			return assoc.Clear()
		}
		return assoc.Replace(values)
	})
}

func (c *Command[E]) Persist() error {
	return c.sess.Persist()
}
