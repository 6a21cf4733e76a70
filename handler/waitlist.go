package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/monitoring"
	"alumni_events/notify"
	"alumni_events/utils"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// OfferWindow is how long a promoted entry has to pay before the seat
// moves to the next person in line.
const OfferWindow = 48 * time.Hour

// PromotionResult describes one waitlist entry moved off the queue.
type PromotionResult struct {
	Entry        *model.WaitlistEntry
	Registration *model.Registration
	Payment      *model.Payment
	Badge        *model.Badge
	Events       []notify.Event
}

// PromoteNext moves the head of the waitlist into the freed seat. The
// caller must hold the event row lock (see helper.LockEvent) so that the
// seat it is handing over cannot be taken by a concurrent admission.
// Returns nil when the waitlist is empty.
//
// Free events confirm immediately and get a badge. Paid events go to
// PENDING with a payment offer that expires after OfferWindow.
func PromoteNext(tx *gorm.DB, event *model.Event) (*PromotionResult, error) {
	var entry model.WaitlistEntry
	err := tx.Where("event_id = ? AND status = ?", event.ID, constants.WAITLIST_WAITING).
		Order("position asc").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var reg model.Registration
	if err := tx.First(&reg, entry.RegistrationId).Error; err != nil {
		return nil, err
	}
	var alumnus model.Alumnus
	if err := tx.First(&alumnus, entry.AlumnusId).Error; err != nil {
		return nil, err
	}

	res := &PromotionResult{Entry: &entry, Registration: &reg}
	now := time.Now()

	if event.IsFree() {
		if err := tx.Model(&reg).Updates(map[string]interface{}{
			"status":       constants.REGISTRATION_CONFIRMED,
			"confirmed_at": now,
		}).Error; err != nil {
			return nil, err
		}
		reg.Status = constants.REGISTRATION_CONFIRMED
		reg.ConfirmedAt = &now

		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"status":      constants.WAITLIST_CONVERTED,
			"notified_at": now,
		}).Error; err != nil {
			return nil, err
		}
		entry.Status = constants.WAITLIST_CONVERTED

		badge, qrPNG, err := IssueBadge(tx, &reg)
		if err != nil {
			return nil, err
		}
		res.Badge = badge
		res.Events = append(res.Events, confirmationEvent(&alumnus, event, &reg, qrPNG))
		return res, nil
	}

	expires := now.Add(OfferWindow)
	if err := tx.Model(&reg).Update("status", constants.REGISTRATION_PENDING).Error; err != nil {
		return nil, err
	}
	reg.Status = constants.REGISTRATION_PENDING

	if err := tx.Model(&entry).Updates(map[string]interface{}{
		"status":           constants.WAITLIST_NOTIFIED,
		"notified_at":      now,
		"offer_expires_at": expires,
	}).Error; err != nil {
		return nil, err
	}
	entry.Status = constants.WAITLIST_NOTIFIED
	entry.OfferExpiresAt = &expires

	var payment model.Payment
	err = tx.Where("registration_id = ?", reg.ID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = model.Payment{
			RegistrationId: reg.ID,
			AlumnusId:      reg.AlumnusId,
			Amount:         event.Price,
			Currency:       "NGN",
			Provider:       "paystack",
			Reference:      helper.NewPaymentReference(),
			Status:         constants.PAYMENT_PENDING,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	res.Payment = &payment

	res.Events = append(res.Events, promotionEvent(&alumnus, event, &reg, expires))
	return res, nil
}

// ExpireWaitlistOffers closes promotion offers whose payment window has
// lapsed. Each expired offer frees a seat, so the next WAITING entry gets
// promoted inside the same transaction. Returns the number of offers
// expired and the notification events to publish.
func ExpireWaitlistOffers(db *gorm.DB) (int, []notify.Event, error) {
	expired := 0
	var events []notify.Event

	for {
		var pending []notify.Event
		progressed := false

		err := db.Transaction(func(tx *gorm.DB) error {
			var entry model.WaitlistEntry
			err := tx.Where("status = ? AND offer_expires_at < ?", constants.WAITLIST_NOTIFIED, time.Now()).
				Order("offer_expires_at asc").
				First(&entry).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			done, evs, err := expireLapsedOffer(tx, &entry)
			if err != nil {
				return err
			}
			progressed = true
			if done {
				expired++
				pending = append(pending, evs...)
			}
			return nil
		})
		if err != nil {
			return expired, events, err
		}
		events = append(events, pending...)
		if !progressed {
			return expired, events, nil
		}
	}
}

// expireLapsedOffer closes one lapsed offer. The entry was read without
// a lock and may be stale, so it is re-read FOR UPDATE once the event
// lock is held; an offer settled in the meantime is left alone. The
// expire itself is conditional on the NOTIFIED status, so a concurrent
// conversion wins over the sweep.
func expireLapsedOffer(tx *gorm.DB, entry *model.WaitlistEntry) (bool, []notify.Event, error) {
	event, err := helper.LockEvent(tx, entry.EventId)
	if err != nil {
		return false, nil, err
	}

	if err := helper.ForUpdate(tx).First(entry, entry.ID).Error; err != nil {
		return false, nil, err
	}
	if entry.Status != constants.WAITLIST_NOTIFIED {
		return false, nil, nil
	}

	now := time.Now()
	res := tx.Model(&model.WaitlistEntry{}).
		Where("id = ? AND status = ?", entry.ID, constants.WAITLIST_NOTIFIED).
		Update("status", constants.WAITLIST_EXPIRED)
	if res.Error != nil {
		return false, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil, nil
	}

	if err := tx.Model(&model.Registration{}).Where("id = ?", entry.RegistrationId).
		Updates(map[string]interface{}{
			"status":       constants.REGISTRATION_CANCELLED,
			"cancelled_at": now,
		}).Error; err != nil {
		return false, nil, err
	}
	if err := tx.Model(&model.Payment{}).
		Where("registration_id = ? AND status = ?", entry.RegistrationId, constants.PAYMENT_PENDING).
		Update("status", constants.PAYMENT_FAILED).Error; err != nil {
		return false, nil, err
	}

	if event.Status != constants.EVENT_PUBLISHED {
		return true, nil, nil
	}
	promo, err := PromoteNext(tx, event)
	if err != nil {
		return false, nil, err
	}
	if promo == nil {
		return true, nil, nil
	}
	return true, promo.Events, nil
}

var waitlistCron *cron.Cron

// StartWaitlistExpiryWorker sweeps lapsed promotion offers every ten
// minutes.
func StartWaitlistExpiryWorker() {
	waitlistCron = cron.New()
	_, err := waitlistCron.AddFunc("*/10 * * * *", func() {
		n, events, err := ExpireWaitlistOffers(database.DB)
		if err != nil {
			log.Println("waitlist expiry sweep:", err)
		}
		if n > 0 {
			log.Printf("waitlist expiry sweep: expired %d offer(s)", n)
		}
		for _, ev := range events {
			notify.Publish(ev)
			monitoring.RecordWaitlistPromotion()
		}
	})
	if err != nil {
		log.Println("waitlist expiry worker:", err)
		return
	}
	waitlistCron.Start()
}

func StopWaitlistExpiryWorker() {
	if waitlistCron != nil {
		waitlistCron.Stop()
	}
}

// GetEventWaitlist lists an event's waitlist in queue order, for staff.
func GetEventWaitlist(c *fiber.Ctx) error {
	eventId, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}

	var entries []model.WaitlistEntry
	if err := database.DB.Preload("Alumnus").Preload("Registration").
		Where("event_id = ?", eventId).
		Order("position asc").
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, entries)
}
