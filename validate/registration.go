package validate

import (
	"alumni_events/constants"
	"alumni_events/model"
	"alumni_events/utils"

	"github.com/gofiber/fiber/v2"
)

func CreateRegistration() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateRegistrationInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}
		if !utils.IsValidValueOfConstant(input.TicketType, constants.TICKET_TYPES) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket type", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func FilterRegistrations() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.FilterRegistrationInput
		if err := c.QueryParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}
