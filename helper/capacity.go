package helper

import (
	"alumni_events/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds SELECT ... FOR UPDATE on databases that support it.
// SQLite has no FOR UPDATE; its single-writer transactions give the
// same guarantee there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// LockEvent loads an event row under FOR UPDATE so that concurrent
// admissions for the same event serialize on the row.
func LockEvent(tx *gorm.DB, eventId uint) (*model.Event, error) {
	var event model.Event
	if err := ForUpdate(tx).First(&event, eventId).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// CountSeatHolders counts registrations currently holding a seat
// (CONFIRMED or PENDING) for the event.
func CountSeatHolders(tx *gorm.DB, eventId uint) (int64, error) {
	var count int64
	err := tx.Model(&model.Registration{}).
		Where("event_id = ? AND status IN ?", eventId, []string{"CONFIRMED", "PENDING"}).
		Count(&count).Error
	return count, err
}

// RemainingSeats is the capacity oracle: capacity minus seat holders,
// clamped at zero. When the result gates an admission it must be read on a
// transaction that holds the event row lock (see LockEvent).
func RemainingSeats(tx *gorm.DB, event *model.Event) (int, error) {
	count, err := CountSeatHolders(tx, event.ID)
	if err != nil {
		return 0, err
	}
	remaining := event.Capacity - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// NextWaitlistPosition returns max(position)+1 for the event. Only valid
// inside the admission transaction, where the event row lock serializes
// writers.
func NextWaitlistPosition(tx *gorm.DB, eventId uint) (int, error) {
	var max int
	err := tx.Model(&model.WaitlistEntry{}).
		Where("event_id = ?", eventId).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
