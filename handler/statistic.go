package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/model"
	"alumni_events/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

// GetAdminStats powers the admin dashboard tiles.
func GetAdminStats(c *fiber.Ctx) error {
	db := database.DB

	type Stats struct {
		Alumni         int64 `json:"alumni"`
		Events         int64 `json:"events"`
		UpcomingEvents int64 `json:"upcomingEvents"`

		Registrations      int64 `json:"registrations"`
		ConfirmedToday     int64 `json:"confirmedToday"`
		WaitingOnWaitlists int64 `json:"waitingOnWaitlists"`

		RevenueToday    float64 `json:"revenueToday"`
		PaymentsPending int64   `json:"paymentsPending"`
		PaymentsReview  int64   `json:"paymentsReview"`

		CheckedInToday int64 `json:"checkedInToday"`
	}

	var stats Stats
	today := time.Now().In(time.Local)
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	todayEnd := todayStart.Add(24 * time.Hour)

	db.Model(&model.Alumnus{}).Where("active = ?", true).Count(&stats.Alumni)
	db.Model(&model.Event{}).Count(&stats.Events)
	db.Model(&model.Event{}).
		Where("status = ? AND start_date > ?", constants.EVENT_PUBLISHED, time.Now()).
		Count(&stats.UpcomingEvents)

	db.Model(&model.Registration{}).
		Where("status <> ?", constants.REGISTRATION_CANCELLED).
		Count(&stats.Registrations)
	db.Model(&model.Registration{}).
		Where("status = ? AND confirmed_at BETWEEN ? AND ?",
			constants.REGISTRATION_CONFIRMED, todayStart, todayEnd).
		Count(&stats.ConfirmedToday)
	db.Model(&model.WaitlistEntry{}).
		Where("status = ?", constants.WAITLIST_WAITING).
		Count(&stats.WaitingOnWaitlists)

	db.Raw(`
        SELECT COALESCE(SUM(amount), 0)
        FROM payments
        WHERE status = 'SUCCESS'
          AND paid_at BETWEEN ? AND ?
    `, todayStart, todayEnd).Scan(&stats.RevenueToday)

	db.Model(&model.Payment{}).Where("status = ?", constants.PAYMENT_PENDING).Count(&stats.PaymentsPending)
	db.Model(&model.Payment{}).Where("status = ?", constants.PAYMENT_REVIEW).Count(&stats.PaymentsReview)

	db.Model(&model.BadgeScan{}).
		Where("scan_type = ? AND scanned_at BETWEEN ? AND ?",
			constants.SCAN_CHECKIN, todayStart, todayEnd).
		Count(&stats.CheckedInToday)

	return utils.SuccessResponse(c, fiber.StatusOK, stats)
}
