package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlaybookItem struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PlaybookID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_playbook_order,unique" json:"playbook_id"`
	Playbook         *PlaybookTemplate `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlaybookID;references:ID" json:"playbook,omitempty"`
	OrderIndex       int               `gorm:"column:order_index;not null;index:idx_playbook_order,unique" json:"order_index"`
	Title            string            `gorm:"column:title;not null" json:"title"`
	Description      string            `gorm:"column:description" json:"description"`
	Required         bool              `gorm:"column:required;not null;default:true" json:"required"`
	ValidationSchema datatypes.JSON    `gorm:"type:jsonb;column:validation_schema" json:"validation_schema,omitempty"`
	CreatedAt        time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlaybookItem) TableName() string { return "playbook_item" }
