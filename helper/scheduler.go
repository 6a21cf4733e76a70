package helper

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/model"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var eventScheduler gocron.Scheduler

// CompletePastEvents moves PUBLISHED events whose end date has passed to
// COMPLETED so they stop accepting registrations and scans.
func CompletePastEvents() {
	now := time.Now()
	result := database.DB.Model(&model.Event{}).
		Where("status = ? AND end_date < ?", constants.EVENT_PUBLISHED, now).
		Update("status", constants.EVENT_COMPLETED)

	if result.Error != nil {
		log.Printf("event status sweep failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("marked %d events COMPLETED", result.RowsAffected)
	}
}

func StartEventStatusScheduler() {
	s, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("failed to create event scheduler: %v", err)
		return
	}

	_, err = s.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(CompletePastEvents),
	)
	if err != nil {
		log.Printf("failed to schedule event status sweep: %v", err)
		return
	}

	eventScheduler = s
	s.Start()
	log.Println("event status scheduler started (every 30 minutes)")
}

func StopEventStatusScheduler() {
	if eventScheduler != nil {
		_ = eventScheduler.Shutdown()
		log.Println("event status scheduler stopped")
	}
}
