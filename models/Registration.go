package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const RegistrationPending = "pending"

// Registration records that a user joined a contest, either through a confirmed payment or directly
type Registration struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	ContestID     string          `gorm:"type:varchar(36);not null;uniqueIndex:ux_registration_contest_user,priority:1" json:"contestId"`
	UserEmail     string          `gorm:"type:varchar(255);not null;uniqueIndex:ux_registration_contest_user,priority:2;index" json:"userEmail"`
	UserName      string          `gorm:"type:varchar(100)" json:"userName"`
	UserPhoto     string          `gorm:"type:varchar(512)" json:"userPhoto"`
	Status        string          `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	TransactionID *string         `gorm:"type:varchar(255);uniqueIndex:ux_registration_transaction" json:"transactionId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RegistrationPending
	}
	return nil
}
