package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the base for soft-deletable models. Deleting a Model only sets
// DeletedAt; fixtures sweep such tables with permanent deletes.
type Model struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// SupportsPermanentDelete marks Model as soft-deleting.
func (Model) SupportsPermanentDelete() bool { return true }

// HardModel is the base for models whose rows are removed on delete.
type HardModel struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UUIDModel is a soft-deletable model keyed by a client-generated UUID.
type UUIDModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// SupportsPermanentDelete marks UUIDModel as soft-deleting.
func (UUIDModel) SupportsPermanentDelete() bool { return true }

// BeforeCreate generates a UUID if not already set.
func (b *UUIDModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
