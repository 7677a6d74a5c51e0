package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission represents the task link a registered user handed in for a contest
type Submission struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ContestID   string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_submission_contest_user,priority:1" json:"contestId"`
	UserEmail   string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_submission_contest_user,priority:2" json:"userEmail"`
	UserName    string    `gorm:"type:varchar(100)" json:"userName"`
	UserPhoto   string    `gorm:"type:varchar(512)" json:"userPhoto"`
	TaskLink    string    `gorm:"type:varchar(1024);not null" json:"taskLink"`
	SubmittedAt time.Time `gorm:"not null" json:"submittedAt"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
