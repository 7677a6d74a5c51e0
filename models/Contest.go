package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContestStatus string

const (
	ContestPending   ContestStatus = "Pending"
	ContestConfirmed ContestStatus = "Confirmed"
	ContestRejected  ContestStatus = "Rejected"
)

// Winner is embedded in the contest row once the creator declares it
type Winner struct {
	Name       string     `gorm:"type:varchar(100)" json:"name,omitempty"`
	Email      string     `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Photo      string     `gorm:"type:varchar(512)" json:"photo,omitempty"`
	DeclaredAt *time.Time `json:"declaredAt,omitempty"`
}

// Contest represents a contest published by a creator that users can register and submit to
type Contest struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(150);not null" json:"name"`
	Slug            string          `gorm:"type:varchar(200);index" json:"slug"`
	Image           string          `gorm:"type:varchar(512);not null" json:"image"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	EntryFee        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"entryFee"`
	PrizeMoney      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"prizeMoney"`
	TaskInstruction string          `gorm:"type:text;not null" json:"taskInstruction"`
	ContestType     string          `gorm:"type:varchar(50);not null;index" json:"contestType"`
	Deadline        time.Time       `gorm:"not null" json:"deadline"`
	CreatorEmail    string          `gorm:"type:varchar(255);not null;index" json:"creatorEmail"`
	CreatorName     string          `gorm:"type:varchar(100)" json:"creatorName"`
	Status          ContestStatus   `gorm:"type:varchar(20);not null;default:Pending;index" json:"status"`
	Participants    int             `gorm:"not null;default:0" json:"participants"`
	Winner          Winner          `gorm:"embedded;embeddedPrefix:winner_" json:"winner"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (c *Contest) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}

// HasWinner reports whether a winner was declared
func (c *Contest) HasWinner() bool {
	return c.Winner.DeclaredAt != nil
}

// Ended reports whether the deadline is strictly before now
func (c *Contest) Ended(now time.Time) bool {
	return c.Deadline.Before(now)
}
