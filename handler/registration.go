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
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdmissionResult is the outcome of one admission attempt.
type AdmissionResult struct {
	Registration  *model.Registration
	WaitlistEntry *model.WaitlistEntry
	Payment       *model.Payment
	Badge         *model.Badge
	Events        []notify.Event
}

// AdmitRegistration runs the admission decision for one alumnus and event.
// The whole decision happens inside a single transaction that holds the
// event row lock, so capacity can never be oversold by concurrent requests:
//
//   - seats remain and the event is free: CONFIRMED, badge issued
//   - seats remain and the event is paid: PENDING plus a payment to settle
//   - no seats: WAITLISTED at the tail of the queue
//
// Notification events are returned, not sent; the caller publishes them
// after the transaction commits.
func AdmitRegistration(db *gorm.DB, alumnus *model.Alumnus, input model.CreateRegistrationInput) (*AdmissionResult, error) {
	res := &AdmissionResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		event, err := helper.LockEvent(tx, input.EventId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != constants.EVENT_PUBLISHED {
			return ErrEventNotPublished
		}
		if time.Now().After(event.StartDate) {
			return ErrRegistrationClosed
		}

		var existing int64
		if err := tx.Model(&model.Registration{}).
			Where("alumnus_id = ? AND event_id = ? AND status <> ?",
				alumnus.ID, event.ID, constants.REGISTRATION_CANCELLED).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		remaining, err := helper.RemainingSeats(tx, event)
		if err != nil {
			return err
		}

		reg := model.Registration{
			PublicCode:      helper.NewPublicCode("REG"),
			AlumnusId:       alumnus.ID,
			EventId:         event.ID,
			TicketType:      input.TicketType,
			SpecialRequests: input.SpecialRequests,
		}

		if remaining > 0 {
			if event.IsFree() {
				now := time.Now()
				reg.Status = constants.REGISTRATION_CONFIRMED
				reg.ConfirmedAt = &now
			} else {
				reg.Status = constants.REGISTRATION_PENDING
			}
			if err := tx.Create(&reg).Error; err != nil {
				return err
			}
			res.Registration = &reg

			if event.IsFree() {
				badge, qrPNG, err := IssueBadge(tx, &reg)
				if err != nil {
					return err
				}
				res.Badge = badge
				res.Events = append(res.Events, confirmationEvent(alumnus, event, &reg, qrPNG))
				return nil
			}

			payment := model.Payment{
				RegistrationId: reg.ID,
				AlumnusId:      alumnus.ID,
				Amount:         event.Price,
				Currency:       "NGN",
				Provider:       "paystack",
				Reference:      helper.NewPaymentReference(),
				Status:         constants.PAYMENT_PENDING,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			res.Payment = &payment
			return nil
		}

		// Event full. Queue at the tail of the waitlist.
		position, err := helper.NextWaitlistPosition(tx, event.ID)
		if err != nil {
			return err
		}
		reg.Status = constants.REGISTRATION_WAITLISTED
		if err := tx.Create(&reg).Error; err != nil {
			return err
		}
		entry := model.WaitlistEntry{
			EventId:        event.ID,
			Position:       position,
			AlumnusId:      alumnus.ID,
			RegistrationId: reg.ID,
			TicketType:     input.TicketType,
			Status:         constants.WAITLIST_WAITING,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		res.Registration = &reg
		res.WaitlistEntry = &entry
		res.Events = append(res.Events, waitlistEvent(alumnus, event, &reg, position))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CancelResult is the outcome of cancelling one registration.
type CancelResult struct {
	Registration *model.Registration
	Promotion    *PromotionResult
	Events       []notify.Event
}

// CancelRegistration cancels by public code. A freed seat immediately
// promotes the head of the waitlist inside the same transaction, so the
// seat never shows as available to regular admissions in between.
// ownerID scopes lookup to one alumnus; pass 0 for staff cancellations.
func CancelRegistration(db *gorm.DB, code string, ownerID uint) (*CancelResult, error) {
	res := &CancelResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var reg model.Registration
		if err := tx.Where("public_code = ?", code).First(&reg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if ownerID != 0 && reg.AlumnusId != ownerID {
			// Do not reveal that the code exists.
			return ErrRegistrationNotFound
		}
		if reg.Status == constants.REGISTRATION_CANCELLED {
			return ErrAlreadyCancelled
		}

		event, err := helper.LockEvent(tx, reg.EventId)
		if err != nil {
			return err
		}

		heldSeat := reg.HoldsSeat()
		wasWaitlisted := reg.Status == constants.REGISTRATION_WAITLISTED
		now := time.Now()

		if err := tx.Model(&reg).Updates(map[string]interface{}{
			"status":       constants.REGISTRATION_CANCELLED,
			"cancelled_at": now,
		}).Error; err != nil {
			return err
		}
		reg.Status = constants.REGISTRATION_CANCELLED
		reg.CancelledAt = &now

		if err := tx.Model(&model.Payment{}).
			Where("registration_id = ? AND status = ?", reg.ID, constants.PAYMENT_PENDING).
			Update("status", constants.PAYMENT_FAILED).Error; err != nil {
			return err
		}

		if wasWaitlisted {
			if err := tx.Model(&model.WaitlistEntry{}).
				Where("registration_id = ?", reg.ID).
				Update("status", constants.WAITLIST_EXPIRED).Error; err != nil {
				return err
			}
		}

		res.Registration = &reg

		if heldSeat && event.Status == constants.EVENT_PUBLISHED {
			promo, err := PromoteNext(tx, event)
			if err != nil {
				return err
			}
			if promo != nil {
				res.Promotion = promo
				res.Events = append(res.Events, promo.Events...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func confirmationEvent(alumnus *model.Alumnus, event *model.Event, reg *model.Registration, qrPNG []byte) notify.Event {
	return notify.Event{
		Type:       notify.TypeRegistrationConfirmed,
		To:         alumnus.Email,
		Name:       alumnus.FirstName + " " + alumnus.LastName,
		EventTitle: event.Title,
		EventDate:  event.StartDate.Format("Monday, 02 January 2006 15:04"),
		Venue:      event.Venue,
		TicketType: reg.TicketType,
		PublicCode: reg.PublicCode,
		QRPNG:      qrPNG,
	}
}

func waitlistEvent(alumnus *model.Alumnus, event *model.Event, reg *model.Registration, position int) notify.Event {
	return notify.Event{
		Type:       notify.TypeWaitlistPlaced,
		To:         alumnus.Email,
		Name:       alumnus.FirstName + " " + alumnus.LastName,
		EventTitle: event.Title,
		EventDate:  event.StartDate.Format("Monday, 02 January 2006 15:04"),
		Venue:      event.Venue,
		TicketType: reg.TicketType,
		PublicCode: reg.PublicCode,
		Position:   position,
	}
}

func promotionEvent(alumnus *model.Alumnus, event *model.Event, reg *model.Registration, expires time.Time) notify.Event {
	return notify.Event{
		Type:        notify.TypeWaitlistPromoted,
		To:          alumnus.Email,
		Name:        alumnus.FirstName + " " + alumnus.LastName,
		EventTitle:  event.Title,
		EventDate:   event.StartDate.Format("Monday, 02 January 2006 15:04"),
		Venue:       event.Venue,
		TicketType:  reg.TicketType,
		PublicCode:  reg.PublicCode,
		OfferExpiry: expires.Format("Monday, 02 January 2006 15:04"),
	}
}

// CreateRegistration handles POST /registrations for a logged-in alumnus.
func CreateRegistration(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	input, ok := c.Locals("input").(model.CreateRegistrationInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	res, err := AdmitRegistration(database.DB, &alumnus, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			monitoring.RecordAdmission("rejected")
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		case errors.Is(err, ErrEventNotPublished):
			monitoring.RecordAdmission("rejected")
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.EVENT_NOT_PUBLISHED, err)
		case errors.Is(err, ErrRegistrationClosed):
			monitoring.RecordAdmission("rejected")
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.REGISTRATION_CLOSED, err)
		case errors.Is(err, ErrAlreadyRegistered):
			monitoring.RecordAdmission("rejected")
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.ALREADY_REGISTERED, err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
	}

	for _, ev := range res.Events {
		notify.Publish(ev)
	}

	body := fiber.Map{"registration": res.Registration}
	switch res.Registration.Status {
	case constants.REGISTRATION_CONFIRMED:
		monitoring.RecordAdmission("confirmed")
		if res.Badge != nil {
			body["badgeCode"] = res.Badge.BadgeCode
		}
	case constants.REGISTRATION_PENDING:
		monitoring.RecordAdmission("pending_payment")
		body["payment"] = res.Payment
	case constants.REGISTRATION_WAITLISTED:
		monitoring.RecordAdmission("waitlisted")
		body["waitlistPosition"] = res.WaitlistEntry.Position
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, body)
}

// GetMyRegistrations lists the caller's registrations, newest first.
func GetMyRegistrations(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	var regs []model.Registration
	if err := database.DB.Preload("Event").
		Where("alumnus_id = ?", claim.AlumnusId).
		Order("created_at desc").
		Find(&regs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, regs)
}

// CancelMyRegistration handles DELETE /registrations/:code.
func CancelMyRegistration(c *fiber.Ctx) error {
	claim, _ := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	res, err := CancelRegistration(database.DB, c.Params("code"), claim.AlumnusId)
	if err != nil {
		switch {
		case errors.Is(err, ErrRegistrationNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.REGISTRATION_NOT_FOUND, err)
		case errors.Is(err, ErrAlreadyCancelled):
			return utils.ErrorResponse(c, fiber.StatusConflict, "ALREADY_CANCELLED", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
	}

	for _, ev := range res.Events {
		notify.Publish(ev)
	}
	if res.Promotion != nil {
		monitoring.RecordWaitlistPromotion()
	}

	return utils.SuccessResponse(c, fiber.StatusOK, res.Registration)
}

// GetRegistrationsAdmin lists registrations with filters, for staff.
func GetRegistrationsAdmin(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.FilterRegistrationInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", nil)
	}

	query := database.DB.Model(&model.Registration{}).Preload("Alumnus").Preload("Event")
	if input.EventId > 0 {
		query = query.Where("event_id = ?", input.EventId)
	}
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var regs []model.Registration
	if err := utils.ApplyPagination(query, input.Limit, input.Page).
		Order("created_at desc").
		Find(&regs).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"total": total,
		"items": regs,
	})
}

// ResendConfirmation re-sends the confirmation email for a confirmed
// registration, regenerating the badge QR.
func ResendConfirmation(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	var reg model.Registration
	if err := database.DB.Preload("Event").
		Where("public_code = ? AND alumnus_id = ?", c.Params("code"), claim.AlumnusId).
		First(&reg).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.REGISTRATION_NOT_FOUND, err)
	}
	if reg.Status != constants.REGISTRATION_CONFIRMED {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.NOT_CONFIRMED, nil)
	}

	var badge model.Badge
	var qrPNG []byte
	if err := database.DB.Where("registration_id = ?", reg.ID).First(&badge).Error; err == nil {
		qrPNG, _ = utils.GenerateQRCode(badge.QRPayload, 256)
	}

	notify.Publish(confirmationEvent(&alumnus, &reg.Event, &reg, qrPNG))
	return utils.SuccessResponse(c, fiber.StatusOK, "Confirmation email queued")
}
