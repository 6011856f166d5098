package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserPlaybookResponse records one completed step within a journey. The
// (journey_id, step_id) pair is unique; re-completing a step replaces the
// payload and timestamp rather than adding a row.
type UserPlaybookResponse struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	JourneyID   uuid.UUID             `gorm:"type:uuid;not null;index:idx_journey_step,unique" json:"journey_id"`
	Journey     *UserPlaybookProgress `gorm:"constraint:OnDelete:CASCADE;foreignKey:JourneyID;references:ID" json:"journey,omitempty"`
	StepID      uuid.UUID             `gorm:"type:uuid;not null;index:idx_journey_step,unique" json:"step_id"`
	Step        *PlaybookItem         `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepID;references:ID" json:"step,omitempty"`
	Response    datatypes.JSON        `gorm:"type:jsonb;column:response" json:"response"`
	CompletedAt time.Time             `gorm:"column:completed_at;not null" json:"completed_at"`
	CreatedAt   time.Time             `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt        `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserPlaybookResponse) TableName() string { return "user_playbook_response" }
