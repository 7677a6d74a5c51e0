package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContestBeforeCreateFillsIDAndSlug(t *testing.T) {
	c := &Contest{Name: "Logo Design Sprint 2026"}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.Len(t, c.ID, 36)
	assert.Equal(t, "logo-design-sprint-2026", c.Slug)

	keep := &Contest{ID: "fixed", Name: "x", Slug: "custom"}
	assert.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)
	assert.Equal(t, "custom", keep.Slug)
}

func TestContestEndedAndWinner(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &Contest{Deadline: now.Add(-time.Second)}
	assert.True(t, c.Ended(now))
	c.Deadline = now
	assert.False(t, c.Ended(now))

	assert.False(t, c.HasWinner())
	c.Winner.DeclaredAt = &now
	assert.True(t, c.HasWinner())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleCreator.Valid())
	assert.False(t, Role("Owner").Valid())
}

func TestRegistrationDefaults(t *testing.T) {
	r := &Registration{}
	assert.NoError(t, r.BeforeCreate(nil))
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, RegistrationPending, r.Status)
}
