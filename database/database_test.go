package database_test

import (
	"testing"

	"contesthub/database"
	"contesthub/logger"
	"contesthub/models"
	"contesthub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPopulateCreatesAdmin(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, database.Populate(db, "root@test.dev", logger.Discard()))
	require.NoError(t, database.Populate(db, "root@test.dev", logger.Discard()))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestPopulatePromotesExistingUser(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "root@test.dev", models.RoleUser)

	require.NoError(t, database.Populate(db, "root@test.dev", logger.Discard()))

	var u models.User
	require.NoError(t, db.Where("email = ?", "root@test.dev").First(&u).Error)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestPopulateWithoutAdminEmailIsNoop(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.Populate(db, "", logger.Discard()))

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestUniqueIndexesTranslateToDuplicatedKey(t *testing.T) {
	db := testutil.NewDB(t)

	first := models.Registration{ContestID: "c1", UserEmail: "a@test.dev"}
	require.NoError(t, db.Create(&first).Error)

	dup := models.Registration{ContestID: "c1", UserEmail: "a@test.dev"}
	assert.ErrorIs(t, db.Create(&dup).Error, gorm.ErrDuplicatedKey)

	tx := "pi_123"
	require.NoError(t, db.Create(&models.Registration{ContestID: "c2", UserEmail: "a@test.dev", TransactionID: &tx}).Error)
	err := db.Create(&models.Registration{ContestID: "c3", UserEmail: "b@test.dev", TransactionID: &tx}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// direct registrations carry no transaction id and must not collide with each other
	require.NoError(t, db.Create(&models.Registration{ContestID: "c4", UserEmail: "b@test.dev"}).Error)
}
