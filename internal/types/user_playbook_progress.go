package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlaybookStatusNotStarted = "not_started"
	PlaybookStatusInProgress = "in_progress"
	PlaybookStatusCompleted  = "completed"
)

// UserPlaybookProgress is one user's journey through a playbook template.
// ProgressPercentage is always recomputed from the stored responses; it is
// never written independently of them.
type UserPlaybookProgress struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;index:idx_user_playbook,unique" json:"user_id"`
	User               *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PlaybookID         uuid.UUID         `gorm:"type:uuid;not null;index:idx_user_playbook,unique" json:"playbook_id"`
	Playbook           *PlaybookTemplate `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlaybookID;references:ID" json:"playbook,omitempty"`
	Status             string            `gorm:"column:status;not null;default:'not_started'" json:"status"`
	ProgressPercentage float64           `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	StartedAt          *time.Time        `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserPlaybookProgress) TableName() string { return "user_playbook_progress" }
