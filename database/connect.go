package database

import (
	"alumni_events/config"
	"alumni_events/model"
	"fmt"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	p := config.Config("DB_PORT")
	port, err := strconv.ParseUint(p, 10, 32)

	if err != nil {
		panic("failed to parse database port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Config("DB_HOST"), port, config.Config("DB_USER"),
		config.Config("DB_PASSWORD"), config.Config("DB_NAME"))
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		panic("failed to connect database")
	}

	fmt.Println("Connection Opened to Database")
	Migrate(DB)
	fmt.Println("Database Migrated")

	SeedData(DB)
}

// Migrate runs AutoMigrate for every model. Shared with the test setup.
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&model.Account{},
		&model.Alumnus{},
		&model.PasswordResetToken{},
		&model.Event{},
		&model.Registration{},
		&model.Payment{},
		&model.WaitlistEntry{},
		&model.Badge{},
		&model.BadgeScan{},
	)

	// One live registration per alumnus and event. The admission check runs
	// under the event row lock; this index backs it at the schema level.
	db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_reg_active_unique
		ON registrations (alumnus_id, event_id)
		WHERE status <> 'CANCELLED'`)
}
