package database

import (
	"fmt"
	"log"

	config "github.com/districtone/backend/configs"
	"github.com/districtone/backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the pooled database handle every service is constructed
// with. TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func Connect() *gorm.DB {
	dsn := config.Config("DATABASE_URL")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
	return db
}

func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Session{},
		&models.SendAttempt{},
		&models.Team{},
		&models.TeamLike{},
		&models.EventLike{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}
