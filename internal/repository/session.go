package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/apperr"
)

var tracer = otel.Tracer("github.com/Tomlord1122/todo-api/internal/repository")

// Session is the persistence context of one request. It must not be shared
// across requests or kept after the request completes.
type Session struct {
	db     *gorm.DB
	staged []func(tx *gorm.DB) error
}

// NewSession binds db to ctx for the lifetime of one request.
func NewSession(ctx context.Context, db *gorm.DB) *Session {
	return &Session{db: db.WithContext(ctx)}
}

func (s *Session) stage(op func(tx *gorm.DB) error) {
	s.staged = append(s.staged, op)
}

// Pending returns the number of staged, not yet persisted, changes.
func (s *Session) Pending() int { return len(s.staged) }

// Persist applies every staged change in one transaction. On failure the
// transaction is rolled back and the changes stay staged.
func (s *Session) Persist() error {
	if len(s.staged) == 0 {
		return nil
	}
	if err := s.db.Statement.Context.Err(); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, op := range s.staged {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("persist staged changes", err)
	}

	s.staged = nil
	return nil
}

// snapshot runs fn in a read transaction so that a count and the page it
// describes observe the same data. Postgres gets REPEATABLE READ; SQLite
// transactions are already serializable.
func (s *Session) snapshot(name string, fn func(tx *gorm.DB) error) error {
	ctx, span := tracer.Start(s.db.Statement.Context, name)
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY").Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
