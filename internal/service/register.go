package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/cache"
	"github.com/Tomlord1122/todo-api/internal/mediator"
	"github.com/Tomlord1122/todo-api/internal/notify"
	"github.com/Tomlord1122/todo-api/internal/secrets"
	"github.com/Tomlord1122/todo-api/internal/storage"
)

// Dependencies are the collaborators handlers need. Files and Notifier are
// optional; their handlers are only registered when set.
type Dependencies struct {
	DB       *gorm.DB
	Lists    *cache.ListCache
	Secrets  *secrets.Manager
	Files    *storage.Service
	Notifier *notify.Dispatcher
	Now      func() time.Time
}

// Register binds every handler to its request type.
func Register(m *mediator.Mediator, deps Dependencies) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	todos := newTodoService(deps.DB, deps.Lists, now)
	mediator.Register(m, todos.CreateTodo)
	mediator.Register(m, todos.UpdateTodo)
	mediator.Register(m, todos.DeleteTodo)
	mediator.Register(m, todos.GetTodoByID)
	mediator.Register(m, todos.GetAllTodos)
	mediator.Register(m, todos.AssignTags)

	tags := newTagService(deps.DB, deps.Lists, now)
	mediator.Register(m, tags.CreateTag)
	mediator.Register(m, tags.GetAllTags)

	categories := newCategoryService(deps.DB, deps.Lists, now)
	mediator.Register(m, categories.CreateCategory)
	mediator.Register(m, categories.GetAllCategories)

	if deps.Secrets != nil {
		s := &secretService{manager: deps.Secrets}
		mediator.Register(m, s.GetSecret)
		mediator.Register(m, s.ListSecrets)
		mediator.Register(m, s.CreateSecret)
		mediator.Register(m, s.UpdateSecret)
		mediator.Register(m, s.DeleteSecret)
	}

	if deps.Files != nil {
		f := &fileService{files: deps.Files}
		mediator.Register(m, f.UploadFile)
		mediator.Register(m, f.DownloadFile)
		mediator.Register(m, f.DeleteFile)
		mediator.Register(m, f.ListFiles)
		mediator.Register(m, f.PresignFile)
		mediator.Register(m, f.OpenPresigned)
	}

	if deps.Notifier != nil {
		n := &notificationService{dispatcher: deps.Notifier}
		mediator.Register(m, n.SendEmail)
		mediator.Register(m, n.SendSMS)
	}
}
