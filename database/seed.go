package database

import (
	"alumni_events/constants"
	"alumni_events/model"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func parseDate(dateStr string) time.Time {
	t, _ := time.Parse("2006-01-02", dateStr)
	return t
}

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("changeme123"), 10)
	hashPassword := string(bytes)
	if err != nil {
		hashPassword = "changeme123"
	}
	accounts := []model.Account{
		{Username: "administration", Password: hashPassword, Active: true, Role: constants.ROLE_ADMIN, FullName: "Association Admin"},
	}

	for _, account := range accounts {
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed data for account:", account.Username, "error:", err)
		}
	}

	events := []model.Event{
		{
			Title:       "Annual Alumni Conference 2026",
			Slug:        "annual-alumni-conference-2026",
			Description: "Three days of reunion, networking and chapter meetings.",
			Venue:       "National Conference Centre",
			Address:     "Abuja",
			StartDate:   parseDate("2026-11-20"),
			EndDate:     parseDate("2026-11-22"),
			Capacity:    500,
			Price:       decimal.NewFromInt(25000),
			Status:      constants.EVENT_PUBLISHED,
		},
		{
			Title:       "Squadron 88 Homecoming",
			Slug:        "squadron-88-homecoming",
			Description: "Free homecoming mixer for all sets.",
			Venue:       "Association Secretariat",
			Address:     "Jos",
			StartDate:   parseDate("2026-10-03"),
			EndDate:     parseDate("2026-10-03"),
			Capacity:    120,
			Price:       decimal.Zero,
			Status:      constants.EVENT_PUBLISHED,
		},
	}

	for _, event := range events {
		if err := db.Where(model.Event{Slug: event.Slug}).FirstOrCreate(&event).Error; err != nil {
			log.Println("failed to seed data for event:", event.Slug, "error:", err)
		}
	}
}
