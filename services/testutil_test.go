package services

import (
	"testing"

	"github.com/districtone/backend/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the production schema and
// the same TranslateError setting the real handle uses.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Session{},
		&models.SendAttempt{},
		&models.Team{},
		&models.TeamLike{},
		&models.EventLike{},
	))
	return db
}
