package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/utils"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// IssueBadge creates the badge for a confirmed registration and returns it
// together with the rendered QR PNG. The QR payload is minted after the
// insert so the badge id can be part of the signed token. Idempotent: a
// registration that already has a badge gets the existing one back.
func IssueBadge(tx *gorm.DB, reg *model.Registration) (*model.Badge, []byte, error) {
	var existing model.Badge
	err := tx.Where("registration_id = ?", reg.ID).First(&existing).Error
	if err == nil {
		png, renderErr := utils.GenerateQRCode(existing.QRPayload, 256)
		return &existing, png, renderErr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	badge := model.Badge{
		BadgeCode:      helper.NewPublicCode("BDG"),
		RegistrationId: reg.ID,
		EventId:        reg.EventId,
		AlumnusId:      reg.AlumnusId,
	}
	if err := tx.Create(&badge).Error; err != nil {
		return nil, nil, err
	}

	token, err := utils.SignBadgeToken(utils.BadgePayload{
		BadgeId:        badge.ID,
		EventId:        badge.EventId,
		AlumnusId:      badge.AlumnusId,
		RegistrationId: badge.RegistrationId,
		IssuedAt:       time.Now().Unix(),
		BadgeCode:      badge.BadgeCode,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Model(&badge).Update("qr_payload", token).Error; err != nil {
		return nil, nil, err
	}
	badge.QRPayload = token

	png, err := utils.GenerateQRCode(token, 256)
	if err != nil {
		return nil, nil, err
	}
	return &badge, png, nil
}

// GetMyBadge returns the badge for one of the caller's registrations,
// with the QR embedded as a data URL.
func GetMyBadge(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	code := c.Params("registrationCode")
	var reg model.Registration
	if err := database.DB.Where("public_code = ? AND alumnus_id = ?", code, alumnus.ID).First(&reg).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.REGISTRATION_NOT_FOUND, err)
	}

	var badge model.Badge
	if err := database.DB.Preload("Event").Where("registration_id = ?", reg.ID).First(&badge).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BADGE_NOT_FOUND, err)
	}

	qrBase64 := ""
	if qrBytes, err := utils.GenerateQRCode(badge.QRPayload, 400); err == nil {
		qrBase64 = "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrBytes)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"badgeCode":   badge.BadgeCode,
		"eventTitle":  badge.Event.Title,
		"checkedIn":   badge.CheckedIn,
		"scanCount":   badge.ScanCount,
		"firstScanAt": badge.FirstScanAt,
		"lastScanAt":  badge.LastScanAt,
		"qrCode":      qrBase64,
	})
}

// BadgeQRImage serves the badge QR as a raw PNG, for printing.
func BadgeQRImage(c *fiber.Ctx) error {
	claim, alumnus := helper.GetInfoAlumnusFromToken(c)
	if claim.AlumnusId == 0 {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Please log in", nil)
	}

	code := c.Params("badgeCode")
	var badge model.Badge
	if err := database.DB.Where("badge_code = ? AND alumnus_id = ?", code, alumnus.ID).First(&badge).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BADGE_NOT_FOUND, err)
	}

	qrBytes, err := utils.GenerateQRCode(badge.QRPayload, 400)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Set("Content-Type", "image/png")
	return c.Send(qrBytes)
}
