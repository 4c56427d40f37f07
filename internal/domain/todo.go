package domain

import "time"

// TodoItem is hard-deleted; there is no soft-delete column.
// CompletedAt is non-nil exactly when IsCompleted is true.
type TodoItem struct {
	ID          uint          `gorm:"primaryKey"`
	Title       string        `gorm:"size:200;not null"`
	Description *string       `gorm:"size:2000"`
	IsCompleted bool          `gorm:"not null"`
	CreatedAt   time.Time     `gorm:"not null"`
	CompletedAt *time.Time
	CategoryID  *uint         `gorm:"index"`
	Category    *TodoCategory `gorm:"constraint:OnDelete:SET NULL;"`
	Tags        []Tag         `gorm:"many2many:todo_item_tags;"`
}

func (TodoItem) TableName() string { return "todo_items" }

// SetCompleted applies a completion-flag change, stamping or clearing the
// completion time on a transition. Reports whether the flag changed.
func (t *TodoItem) SetCompleted(completed bool, now time.Time) bool {
	if t.IsCompleted == completed {
		return false
	}
	t.IsCompleted = completed
	if completed {
		stamp := now
		if stamp.Before(t.CreatedAt) {
			stamp = t.CreatedAt
		}
		t.CompletedAt = &stamp
	} else {
		t.CompletedAt = nil
	}
	return true
}

// TagIDs returns the ids of the loaded tags.
func (t *TodoItem) TagIDs() []uint {
	ids := make([]uint, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

type Tag struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;not null;index"`
	Color     *string `gorm:"size:32"`
	CreatedAt time.Time
	// Todos is a lookup-only back reference.
	Todos []TodoItem `gorm:"many2many:todo_item_tags;"`
}

func (Tag) TableName() string { return "tags" }

type TodoCategory struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:100;not null;uniqueIndex"`
	Description *string `gorm:"size:500"`
	CreatedAt   time.Time
	Todos       []TodoItem `gorm:"foreignKey:CategoryID"`
}

func (TodoCategory) TableName() string { return "todo_categories" }

// Models lists every persisted type, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{&TodoCategory{}, &Tag{}, &TodoItem{}, &Secret{}}
}
