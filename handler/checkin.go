package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/monitoring"
	"alumni_events/utils"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DedupWindow suppresses repeat scans of the same badge for the same
// scan type and location. A steward scanning twice in quick succession
// gets the original result back instead of a second scan row.
const DedupWindow = 5 * time.Minute

// ScanResult is the outcome of one badge scan.
type ScanResult struct {
	Duplicate    bool
	PriorScanAt  *time.Time
	CheckedInNow bool
	Scan         *model.BadgeScan
	Badge        *model.Badge
	Alumnus      *model.Alumnus
	Event        *model.Event
}

// RecordScan verifies the QR token, enforces the dedup window and records
// the scan. The badge row is locked so two stewards scanning the same
// badge at once cannot both record inside the window.
func RecordScan(db *gorm.DB, scannedBy uint, input model.ScanInput, now time.Time) (*ScanResult, error) {
	payload, err := utils.VerifyBadgeToken(input.QRData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBadge, err)
	}

	res := &ScanResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		var badge model.Badge
		if err := helper.ForUpdate(tx).
			Where("id = ? AND event_id = ? AND registration_id = ?",
				payload.BadgeId, payload.EventId, payload.RegistrationId).
			First(&badge).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBadgeNotFound
			}
			return err
		}

		var reg model.Registration
		if err := tx.First(&reg, badge.RegistrationId).Error; err != nil {
			return err
		}
		if reg.Status != constants.REGISTRATION_CONFIRMED {
			return ErrNotConfirmed
		}

		var event model.Event
		if err := tx.First(&event, badge.EventId).Error; err != nil {
			return err
		}
		if event.Status == constants.EVENT_CANCELLED {
			return ErrEventCancelled
		}

		var alumnus model.Alumnus
		if err := tx.First(&alumnus, badge.AlumnusId).Error; err != nil {
			return err
		}

		res.Badge = &badge
		res.Alumnus = &alumnus
		res.Event = &event

		var prior model.BadgeScan
		err := tx.Where("badge_id = ? AND scan_type = ? AND scan_location = ? AND scanned_at >= ?",
			badge.ID, input.ScanType, input.ScanLocation, now.Add(-DedupWindow)).
			Order("scanned_at desc").
			First(&prior).Error
		if err == nil {
			res.Duplicate = true
			res.PriorScanAt = &prior.ScannedAt
			res.Scan = &prior
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		scan := model.BadgeScan{
			BadgeId:      badge.ID,
			EventId:      badge.EventId,
			ScanType:     input.ScanType,
			ScanLocation: input.ScanLocation,
			ScannedBy:    scannedBy,
			ScannedAt:    now,
			Notes:        input.Notes,
		}
		if err := tx.Create(&scan).Error; err != nil {
			return err
		}
		res.Scan = &scan

		updates := map[string]interface{}{
			"scan_count":   gorm.Expr("scan_count + 1"),
			"last_scan_at": now,
		}
		if badge.FirstScanAt == nil {
			updates["first_scan_at"] = now
			badge.FirstScanAt = &now
		}
		if input.ScanType == constants.SCAN_CHECKIN && !badge.CheckedIn {
			updates["checked_in"] = true
			badge.CheckedIn = true
			res.CheckedInNow = true
		}
		if err := tx.Model(&badge).Updates(updates).Error; err != nil {
			return err
		}
		badge.LastScanAt = &now
		badge.ScanCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ScanBadge handles POST /checkin/scan from the steward app.
func ScanBadge(c *fiber.Ctx) error {
	claim, _, _ := helper.GetInfoAccountFromToken(c)

	input, ok := c.Locals("input").(model.ScanInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	res, err := RecordScan(database.DB, claim.AccountId, input, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidBadge):
			monitoring.RecordBadgeScan("invalid")
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_BADGE, err)
		case errors.Is(err, ErrBadgeNotFound):
			monitoring.RecordBadgeScan("not_found")
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BADGE_NOT_FOUND, err)
		case errors.Is(err, ErrNotConfirmed):
			monitoring.RecordBadgeScan("not_confirmed")
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.NOT_CONFIRMED, err)
		case errors.Is(err, ErrEventCancelled):
			monitoring.RecordBadgeScan("event_cancelled")
			return utils.ErrorResponse(c, fiber.StatusConflict, "EVENT_CANCELLED", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
	}

	attendee := fiber.Map{
		"name":        res.Alumnus.FirstName + " " + res.Alumnus.LastName,
		"squadron":    res.Alumnus.Squadron,
		"badgeCode":   res.Badge.BadgeCode,
		"checkedIn":   res.Badge.CheckedIn,
		"scanCount":   res.Badge.ScanCount,
		"firstScanAt": res.Badge.FirstScanAt,
	}

	if res.Duplicate {
		monitoring.RecordBadgeScan("duplicate")
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
			"message":     constants.DUPLICATE_SCAN,
			"priorScanAt": res.PriorScanAt,
			"attendee":    attendee,
		})
	}

	monitoring.RecordBadgeScan("recorded")
	BroadcastScan(res.Event.ID, fiber.Map{
		"scanType":     res.Scan.ScanType,
		"scanLocation": res.Scan.ScanLocation,
		"scannedAt":    res.Scan.ScannedAt,
		"attendee":     attendee,
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message":      "Scan recorded",
		"checkedInNow": res.CheckedInNow,
		"attendee":     attendee,
	})
}

// GetCheckinStats reports live attendance for one event.
func GetCheckinStats(c *fiber.Ctx) error {
	eventId, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}

	var confirmed int64
	if err := database.DB.Model(&model.Registration{}).
		Where("event_id = ? AND status = ?", eventId, constants.REGISTRATION_CONFIRMED).
		Count(&confirmed).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var checkedIn int64
	if err := database.DB.Model(&model.Badge{}).
		Where("event_id = ? AND checked_in = ?", eventId, true).
		Count(&checkedIn).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	var totalScans int64
	if err := database.DB.Model(&model.BadgeScan{}).
		Where("event_id = ?", eventId).
		Count(&totalScans).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	type locationCount struct {
		ScanLocation string `json:"scanLocation"`
		Count        int64  `json:"count"`
	}
	var byLocation []locationCount
	if err := database.DB.Model(&model.BadgeScan{}).
		Select("scan_location, COUNT(*) as count").
		Where("event_id = ?", eventId).
		Group("scan_location").
		Scan(&byLocation).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"confirmed":  confirmed,
		"checkedIn":  checkedIn,
		"totalScans": totalScans,
		"byLocation": byLocation,
	})
}
