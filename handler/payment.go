package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/monitoring"
	"alumni_events/notify"
	"alumni_events/utils"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation outcomes.
const (
	ReconcileConfirmed = "confirmed"
	ReconcileDuplicate = "duplicate"
	ReconcileFailed    = "failed"
	ReconcileMismatch  = "mismatch"
)

// ReconcileResult is the outcome of applying one gateway callback.
type ReconcileResult struct {
	Outcome string
	Payment *model.Payment
	Badge   *model.Badge
	Events  []notify.Event
}

// ReconcilePayment applies a gateway result to the payment identified by
// reference. The first successful callback wins: once a payment is SUCCESS
// every later callback for the same reference is a no-op, which makes
// webhook retries and the verify endpoint safe to race each other.
//
// A success whose amount disagrees with what we charged goes to REVIEW and
// does not confirm the registration; an admin settles those manually.
func ReconcilePayment(db *gorm.DB, reference, status string, amountKobo int64, channel string) (*ReconcileResult, error) {
	res := &ReconcileResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var payment model.Payment
		if err := helper.ForUpdate(tx).Where("reference = ?", reference).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.Status == constants.PAYMENT_SUCCESS {
			res.Outcome = ReconcileDuplicate
			res.Payment = &payment
			return nil
		}

		if status != "success" {
			// A payment waiting on an admin stays in the review queue; a
			// retried failure callback must not pull it back out.
			if payment.Status == constants.PAYMENT_REVIEW {
				res.Outcome = ReconcileDuplicate
				res.Payment = &payment
				return nil
			}
			if err := tx.Model(&payment).Update("status", constants.PAYMENT_FAILED).Error; err != nil {
				return err
			}
			payment.Status = constants.PAYMENT_FAILED
			res.Outcome = ReconcileFailed
			res.Payment = &payment
			return nil
		}

		paid := decimal.New(amountKobo, -2)
		if !paid.Equal(payment.Amount) {
			if err := tx.Model(&payment).Updates(map[string]interface{}{
				"status":         constants.PAYMENT_REVIEW,
				"gateway_amount": paid,
			}).Error; err != nil {
				return err
			}
			payment.Status = constants.PAYMENT_REVIEW
			payment.GatewayAmount = &paid
			res.Outcome = ReconcileMismatch
			res.Payment = &payment
			return nil
		}

		now := time.Now()
		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":  constants.PAYMENT_SUCCESS,
			"paid_at": now,
			"channel": channel,
		}).Error; err != nil {
			return err
		}
		payment.Status = constants.PAYMENT_SUCCESS
		payment.PaidAt = &now
		res.Payment = &payment

		var reg model.Registration
		if err := tx.First(&reg, payment.RegistrationId).Error; err != nil {
			return err
		}
		if reg.Status == constants.REGISTRATION_CANCELLED {
			// Paid after cancellation (or after the offer lapsed). Keep the
			// money state, flag for a manual refund.
			if err := tx.Model(&payment).Update("status", constants.PAYMENT_REVIEW).Error; err != nil {
				return err
			}
			payment.Status = constants.PAYMENT_REVIEW
			res.Outcome = ReconcileMismatch
			return nil
		}

		if err := tx.Model(&reg).Updates(map[string]interface{}{
			"status":       constants.REGISTRATION_CONFIRMED,
			"confirmed_at": now,
		}).Error; err != nil {
			return err
		}
		reg.Status = constants.REGISTRATION_CONFIRMED
		reg.ConfirmedAt = &now

		// A promoted entry paying within its window converts off the queue.
		if err := tx.Model(&model.WaitlistEntry{}).
			Where("registration_id = ? AND status = ?", reg.ID, constants.WAITLIST_NOTIFIED).
			Update("status", constants.WAITLIST_CONVERTED).Error; err != nil {
			return err
		}

		badge, qrPNG, err := IssueBadge(tx, &reg)
		if err != nil {
			return err
		}
		res.Badge = badge

		var alumnus model.Alumnus
		if err := tx.First(&alumnus, reg.AlumnusId).Error; err != nil {
			return err
		}
		var event model.Event
		if err := tx.First(&event, reg.EventId).Error; err != nil {
			return err
		}
		res.Events = append(res.Events, confirmationEvent(&alumnus, &event, &reg, qrPNG))
		res.Outcome = ReconcileConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CreatePayment opens a gateway checkout session for a pending
// registration's payment.
func CreatePayment(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	input, ok := c.Locals("input").(model.CreatePaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	var reg model.Registration
	if err := database.DB.
		Where("public_code = ? AND alumnus_id = ?", input.RegistrationCode, claim.AlumnusId).
		First(&reg).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.REGISTRATION_NOT_FOUND, err)
	}
	if reg.Status != constants.REGISTRATION_PENDING {
		return utils.ErrorResponse(c, fiber.StatusConflict, "NOTHING_TO_PAY", nil)
	}

	var payment model.Payment
	if err := database.DB.
		Where("registration_id = ? AND status = ?", reg.ID, constants.PAYMENT_PENDING).
		First(&payment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PAYMENT_NOT_FOUND, err)
	}

	gateway := NewPaystack()
	checkoutURL, err := gateway.InitializeTransaction(alumnus.Email, payment.Amount, payment.Reference)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"reference":   payment.Reference,
		"amount":      payment.Amount,
		"currency":    payment.Currency,
		"checkoutUrl": checkoutURL,
	})
}

// PaystackWebhook receives gateway callbacks. The signature is verified
// over the raw body before anything is parsed; always answers 200 for
// known references so the gateway stops retrying.
func PaystackWebhook(c *fiber.Ctx) error {
	gateway := NewPaystack()
	body := c.Body()

	if !gateway.VerifySignature(c.Get("x-paystack-signature"), body) {
		monitoring.RecordPaymentWebhook("bad_signature")
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid signature", nil)
	}

	var hook model.PaystackWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		monitoring.RecordPaymentWebhook("bad_payload")
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid payload", err)
	}

	status := "failed"
	if hook.Event == "charge.success" && hook.Data.Status == "success" {
		status = "success"
	}

	res, err := ReconcilePayment(database.DB, hook.Data.Reference, status, hook.Data.Amount, hook.Data.Channel)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			monitoring.RecordPaymentWebhook("unknown_reference")
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PAYMENT_NOT_FOUND, err)
		}
		monitoring.RecordPaymentWebhook("error")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	monitoring.RecordPaymentWebhook(res.Outcome)
	if res.Outcome == ReconcileMismatch {
		log.Printf("payment %s flagged for review: gateway amount disagrees", hook.Data.Reference)
	}
	for _, ev := range res.Events {
		notify.Publish(ev)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"outcome": res.Outcome})
}

// AdminVerifyPayment lets staff settle a payment by hand, typically one
// sitting in REVIEW. Runs the same reconciliation path as the webhook.
func AdminVerifyPayment(c *fiber.Ctx) error {
	reference := c.Params("reference")

	var payment model.Payment
	if err := database.DB.Where("reference = ?", reference).First(&payment).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.PAYMENT_NOT_FOUND, err)
	}

	// Settle at the charged amount; the admin has checked the books.
	amountKobo := payment.Amount.Mul(decimal.NewFromInt(100)).IntPart()
	res, err := ReconcilePayment(database.DB, reference, "success", amountKobo, "manual")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	for _, ev := range res.Events {
		notify.Publish(ev)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"outcome": res.Outcome,
		"payment": res.Payment,
	})
}

// GetPaymentsAdmin lists payments with filters, for staff.
func GetPaymentsAdmin(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.FilterPaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", nil)
	}

	query := database.DB.Model(&model.Payment{}).Preload("Registration")
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}
	if input.EventId > 0 {
		query = query.Joins("JOIN registrations ON registrations.id = payments.registration_id").
			Where("registrations.event_id = ?", input.EventId)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var payments []model.Payment
	if err := utils.ApplyPagination(query, input.Limit, input.Page).
		Order("payments.created_at desc").
		Find(&payments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"total": total,
		"items": payments,
	})
}
