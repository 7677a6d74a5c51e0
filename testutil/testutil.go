// Package testutil provides an SQLite-backed database for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"contesthub/database"
	"contesthub/logger"
	"contesthub/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a migrated database in the test's temp dir. A single connection
// keeps SQLite from reporting "database is locked" under concurrent tests.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "contesthub.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), database.Config(logger.Discard()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Clock is a settable time source
type Clock struct {
	T time.Time
}

func NewClock() *Clock {
	return &Clock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// SeedContest inserts a contest directly, bypassing validation
func SeedContest(t testing.TB, db *gorm.DB, c models.Contest) models.Contest {
	t.Helper()
	if c.Name == "" {
		c.Name = "Seeded Contest"
	}
	if c.Image == "" {
		c.Image = "https://img.test/banner.png"
	}
	if c.Description == "" {
		c.Description = "desc"
	}
	if c.TaskInstruction == "" {
		c.TaskInstruction = "do the task"
	}
	if c.ContestType == "" {
		c.ContestType = "Design"
	}
	if c.CreatorEmail == "" {
		c.CreatorEmail = "creator@test.dev"
	}
	if c.Status == "" {
		c.Status = models.ContestConfirmed
	}
	if c.EntryFee.IsZero() {
		c.EntryFee = decimal.NewFromInt(100)
	}
	if c.PrizeMoney.IsZero() {
		c.PrizeMoney = decimal.NewFromInt(1000)
	}
	if c.Deadline.IsZero() {
		c.Deadline = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed contest: %v", err)
	}
	return c
}

// SeedUser inserts a user directly
func SeedUser(t testing.TB, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
