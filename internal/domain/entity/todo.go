package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Todo is a task owned by a user with a due time that triggers a reminder.
type Todo struct {
	ID          uuid.UUID `gorm:"column:id;type:text;primaryKey"`
	Title       string    `gorm:"column:title;size:255;not null"`
	Description *string   `gorm:"column:description;size:255"`
	DueTime     time.Time `gorm:"column:due_time;index;not null"` // UTC
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:text;index;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Todo entity.
func (Todo) TableName() string {
	return "todo"
}

// BeforeCreate assigns a random ID when none is set.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
