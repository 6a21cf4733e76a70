package validate

import (
	"alumni_events/constants"
	"alumni_events/model"
	"alumni_events/utils"

	"github.com/gofiber/fiber/v2"
)

func ScanBadge() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ScanInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}

		if input.ScanType == "" {
			input.ScanType = constants.SCAN_CHECKIN
		}
		if input.ScanLocation == "" {
			input.ScanLocation = "main_entrance"
		}

		c.Locals("input", input)
		return c.Next()
	}
}
