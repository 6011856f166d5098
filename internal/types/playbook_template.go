package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlaybookTemplate struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string          `gorm:"column:description" json:"description"`
	Category    string          `gorm:"column:category" json:"category"`
	Items       []*PlaybookItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlaybookID;references:ID" json:"items,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlaybookTemplate) TableName() string { return "playbook_template" }
