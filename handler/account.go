package handler

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/helper"
	"alumni_events/model"
	"alumni_events/utils"

	"github.com/gofiber/fiber/v2"
)

// CreateAccount creates a staff account (admin only).
func CreateAccount(c *fiber.Ctx) error {
	input, ok := c.Locals("input").(model.CreateAccountInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", nil)
	}

	existing, err := helper.GetAccountByUsername(input.Username)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "USERNAME_TAKEN", nil)
	}

	hashed, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	account := model.Account{
		Username: input.Username,
		Password: hashed,
		FullName: input.FullName,
		Email:    input.Email,
		Role:     input.Role,
	}
	if err := database.DB.Create(&account).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, account)
}

// GetAccounts lists staff accounts (admin only).
func GetAccounts(c *fiber.Ctx) error {
	var accounts []model.Account
	if err := database.DB.Order("created_at desc").Find(&accounts).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, accounts)
}

// ToggleAccountActive flips an account's active flag (admin only).
func ToggleAccountActive(c *fiber.Ctx) error {
	id, ok := c.Locals("inputId").(int)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, nil)
	}

	var account model.Account
	if err := database.DB.First(&account, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Account not found", err)
	}

	if err := database.DB.Model(&account).Update("active", !account.Active).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	account.Active = !account.Active

	return utils.SuccessResponse(c, fiber.StatusOK, account)
}
