package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/model"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("QR_SECRET", "test-qr-secret")
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testSeq++
	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", testSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.Migrate(db)

	// Some handlers read the package-level connection.
	database.DB = db

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var testSeq int

func createAlumnus(t *testing.T, db *gorm.DB) *model.Alumnus {
	t.Helper()
	testSeq++
	alumnus := &model.Alumnus{
		Email:     fmt.Sprintf("alumnus%d@example.com", testSeq),
		Password:  "hashed",
		FirstName: "Test",
		LastName:  fmt.Sprintf("Alumnus%d", testSeq),
		Squadron:  "Alpha",
		Active:    true,
	}
	require.NoError(t, db.Create(alumnus).Error)
	return alumnus
}

func createEvent(t *testing.T, db *gorm.DB, capacity int, price decimal.Decimal) *model.Event {
	t.Helper()
	testSeq++
	event := &model.Event{
		Title:     fmt.Sprintf("Test Event %d", testSeq),
		Slug:      fmt.Sprintf("test-event-%d", testSeq),
		Venue:     "Parade Ground",
		StartDate: time.Now().Add(48 * time.Hour),
		EndDate:   time.Now().Add(72 * time.Hour),
		Capacity:  capacity,
		Price:     price,
		Status:    constants.EVENT_PUBLISHED,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func admit(t *testing.T, db *gorm.DB, alumnus *model.Alumnus, event *model.Event) *AdmissionResult {
	t.Helper()
	res, err := AdmitRegistration(db, alumnus, model.CreateRegistrationInput{
		EventId:    event.ID,
		TicketType: "REGULAR",
	})
	require.NoError(t, err)
	return res
}

func reloadEvent(t *testing.T, db *gorm.DB, id uint) *model.Event {
	t.Helper()
	var event model.Event
	require.NoError(t, db.First(&event, id).Error)
	return &event
}
