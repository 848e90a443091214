package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns todos and receives their reminders.
type User struct {
	ID          uuid.UUID `gorm:"column:id;type:text;primaryKey"`
	Email       string    `gorm:"column:email;uniqueIndex;not null"`
	FullName    *string   `gorm:"column:full_name"`
	LineUserID  *string   `gorm:"column:line_user_id"` // Push target when the LINE transport is active
	IsActive    bool      `gorm:"column:is_active;default:true"`
	IsSuperuser bool      `gorm:"column:is_superuser;default:false"`

	// One-time code the user sends to the LINE bot to link their account.
	LineLinkCode      *string    `gorm:"column:line_link_code;index"`
	LineLinkExpiresAt *time.Time `gorm:"column:line_link_expires_at"`
}

// TableName specifies the table name for the User entity.
func (User) TableName() string {
	return "user"
}

// BeforeCreate assigns a random ID when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
