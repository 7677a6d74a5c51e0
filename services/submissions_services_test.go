package services

import (
	"context"
	"testing"

	"contesthub/models"
	"contesthub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequiresRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contest := testutil.SeedContest(t, f.db, models.Contest{})

	_, err := f.svc.Submissions.Submit(ctx, contest.ID, "ann@test.dev", "https://drive.test/ann")
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not registered for this contest", err.Error())

	submitted, err := f.svc.Submissions.IsSubmitted(ctx, contest.ID, "ann@test.dev")
	require.NoError(t, err)
	assert.False(t, submitted)
}

func TestSubmitOncePerContest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contest := testutil.SeedContest(t, f.db, models.Contest{})
	_, err := f.svc.Registrations.RegisterDirect(ctx, contest.ID, ann)
	require.NoError(t, err)

	submission, err := f.svc.Submissions.Submit(ctx, contest.ID, "ann@test.dev", "https://drive.test/ann")
	require.NoError(t, err)
	assert.Equal(t, "Ann", submission.UserName, "copied from the registration")
	assert.Equal(t, "ann.png", submission.UserPhoto)
	assert.True(t, submission.SubmittedAt.Equal(f.clock.Now()))

	_, err = f.svc.Submissions.Submit(ctx, contest.ID, "ann@test.dev", "https://drive.test/ann-v2")
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Already submitted", err.Error())

	submitted, err := f.svc.Submissions.IsSubmitted(ctx, contest.ID, "Ann@Test.dev")
	require.NoError(t, err)
	assert.True(t, submitted)
}

func TestSubmitValidatesTaskLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contest := testutil.SeedContest(t, f.db, models.Contest{})
	_, err := f.svc.Registrations.RegisterDirect(ctx, contest.ID, ann)
	require.NoError(t, err)

	for _, link := range []string{"", "not a link"} {
		_, err := f.svc.Submissions.Submit(ctx, contest.ID, "ann@test.dev", link)
		assert.ErrorIs(t, err, ErrValidation, link)
	}
}
